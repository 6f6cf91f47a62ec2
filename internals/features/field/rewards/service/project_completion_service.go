package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	attModel "ecoguard_backend/internals/features/field/attendance/model"
	contributionModel "ecoguard_backend/internals/features/field/contributions/model"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	progressModel "ecoguard_backend/internals/features/progress/progress/model"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
	"ecoguard_backend/internals/helpers/keylock"
)

const ActivityProjectCompletion = "project_completion"

// ErrNotEligible dibungkus EligibilityError.
var ErrNotEligible = errors.New("project is not eligible for completion")

type EligibilityError struct {
	ProjectID       uuid.UUID                  `json:"project_id"`
	Status          projectModel.ProjectStatus `json:"status"`
	Progress        float64                    `json:"average_daily_progress"`
	RequiredMinimum float64                    `json:"required_minimum"`
	Reason          string                     `json:"reason"`
}

func (e *EligibilityError) Error() string { return ErrNotEligible.Error() + ": " + e.Reason }
func (e *EligibilityError) Unwrap() error { return ErrNotEligible }

type ProjectStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*projectModel.ProjectModel, error)
	ApplyCompletionTotals(ctx context.Context, projectID, userID uuid.UUID, totalHours float64, xp int) error
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AttendanceSource interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]attModel.FieldAttendanceModel, error)
}

type ContributionSource interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]contributionModel.DailyContributionModel, error)
}

type Awarder interface {
	AwardOnce(ctx context.Context, userID uuid.UUID, itemID string, amount int, activity progressModel.ActivityEntry) (bool, *progressService.Ledger, error)
}

type Options struct {
	MinProgress float64
	Workers     int
}

type Service struct {
	Projects      ProjectStore
	Attendance    AttendanceSource
	Contributions ContributionSource
	Ledger        Awarder
	Locker        keylock.Locker
	Opts          Options
	Log           *zap.Logger
	Now           func() time.Time
}

func NewService(projects ProjectStore, attendance AttendanceSource, contributions ContributionSource,
	ledger Awarder, locker keylock.Locker, opts Options, log *zap.Logger) *Service {
	if opts.MinProgress <= 0 {
		opts.MinProgress = 95
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if locker == nil {
		locker = keylock.NewMemoryLocker()
	}
	return &Service{
		Projects:      projects,
		Attendance:    attendance,
		Contributions: contributions,
		Ledger:        ledger,
		Locker:        locker,
		Opts:          opts,
		Log:           log.Named("rewards"),
		Now:           time.Now,
	}
}

type CompletionResult struct {
	ProjectID    uuid.UUID         `json:"project_id"`
	Contributors []RewardBreakdown `json:"contributors"`
	TotalXP      int               `json:"total_xp"`
}

// CompletionItemID: kunci idempotensi AwardOnce per project.
func CompletionItemID(projectID uuid.UUID) string {
	return "project-completion:" + projectID.String()
}

func (s *Service) checkEligible(p *projectModel.ProjectModel) error {
	e := &EligibilityError{
		ProjectID:       p.ProjectID,
		Status:          p.ProjectStatus,
		Progress:        p.ProjectAverageDailyProgress,
		RequiredMinimum: s.Opts.MinProgress,
	}
	switch {
	case p.ProjectStatus != projectModel.ProjectStatusActive:
		e.Reason = fmt.Sprintf("status project %q, harus active", p.ProjectStatus)
		return e
	case p.ProjectAverageDailyProgress < s.Opts.MinProgress:
		e.Reason = fmt.Sprintf("progress rata-rata %.2f%% < %.0f%%", p.ProjectAverageDailyProgress, s.Opts.MinProgress)
		return e
	}
	return nil
}

// CompleteProject: cek eligibility → hitung reward → AwardOnce + total kontributor paralel → tandai completed.
// Aman diulang: XP dan total kontributor masing-masing hanya diterapkan sekali.
func (s *Service) CompleteProject(ctx context.Context, projectID uuid.UUID) (*CompletionResult, error) {
	unlock, err := s.Locker.Lock(ctx, CompletionItemID(projectID))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Gagal mengunci project, coba lagi")
	}
	defer unlock()

	p, err := s.Projects.FindByID(ctx, projectID)
	if errors.Is(err, projectRepo.ErrProjectNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		s.Log.Error("[REWARD] gagal ambil project", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil project")
	}
	if err := s.checkEligible(p); err != nil {
		return nil, err
	}

	attendance, err := s.Attendance.ListByProject(ctx, projectID)
	if err != nil {
		s.Log.Error("[REWARD] gagal ambil absensi", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data absensi")
	}
	contributions, err := s.Contributions.ListByProject(ctx, projectID)
	if err != nil {
		s.Log.Error("[REWARD] gagal ambil kontribusi", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data kontribusi")
	}

	results := make([]RewardBreakdown, len(p.ProjectContributors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Opts.Workers)
	for i, c := range p.ProjectContributors {
		g.Go(func() error {
			rb := ComputeReward(CollectStats(c.ProjectContributorUserID, c.ProjectContributorName, attendance, contributions))
			awarded, _, err := s.Ledger.AwardOnce(gctx, c.ProjectContributorUserID, CompletionItemID(projectID), rb.XPRewarded, progressModel.ActivityEntry{
				Type:        ActivityProjectCompletion,
				Description: fmt.Sprintf("Project %s selesai", p.ProjectName),
			})
			if err != nil {
				return fmt.Errorf("award %s: %w", c.ProjectContributorUserID, err)
			}
			rb.Awarded = awarded
			// tetap dipanggil saat retry: award bisa sukses di percobaan sebelumnya sementara total gagal
			if err := s.Projects.ApplyCompletionTotals(gctx, projectID, c.ProjectContributorUserID, rb.TotalHours, rb.XPRewarded); err != nil {
				return fmt.Errorf("totals %s: %w", c.ProjectContributorUserID, err)
			}
			results[i] = rb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.Log.Error("[REWARD] completion terhenti", zap.Stringer("project_id", projectID), zap.Error(err))
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal memberi reward kontributor")
	}

	if err := s.Projects.MarkCompleted(ctx, projectID, s.Now()); err != nil {
		if errors.Is(err, projectRepo.ErrProjectNotActive) {
			return nil, fiber.NewError(fiber.StatusConflict, "Project sudah diselesaikan")
		}
		s.Log.Error("[REWARD] gagal menandai completed", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal menyelesaikan project")
	}

	res := &CompletionResult{ProjectID: projectID, Contributors: results}
	for _, rb := range results {
		if rb.Awarded {
			res.TotalXP += rb.XPRewarded
		}
	}
	s.Log.Info("[REWARD] project completed",
		zap.Stringer("project_id", projectID),
		zap.Int("contributors", len(results)),
		zap.Int("total_xp", res.TotalXP))
	return res, nil
}
