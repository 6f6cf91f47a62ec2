package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"ecoguard_backend/internals/features/field/contributions/model"
	"ecoguard_backend/internals/features/field/contributions/repository"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
	progressModel "ecoguard_backend/internals/features/progress/progress/model"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
)

const (
	ActivityDailyContribution = "daily_contribution"

	contributionBaseXP   = 10
	contributionHoursCap = 50.0
)

// ContributionXP = 10 + min(jam×5, 50) + (rating−3)×10 + skills×5, minimal 0.
func ContributionXP(hours float64, rating, skills int) int {
	hoursXP := math.Min(hours*5, contributionHoursCap)
	total := float64(contributionBaseXP) + hoursXP + float64((rating-3)*10) + float64(skills*5)
	if total < 0 {
		return 0
	}
	return int(math.Round(total))
}

type ProjectLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*projectModel.ProjectModel, error)
	FindContributor(ctx context.Context, projectID, userID uuid.UUID) (*projectModel.ProjectContributorModel, error)
}

type XPLedger interface {
	AddXP(ctx context.Context, userID uuid.UUID, amount int, activity progressModel.ActivityEntry) (*progressService.Ledger, error)
}

type Service struct {
	Projects ProjectLookup
	Store    repository.Store
	Ledger   XPLedger
	Location *time.Location
	Log      *zap.Logger
	Now      func() time.Time
}

func NewService(projects ProjectLookup, store repository.Store, ledger XPLedger, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Projects: projects, Store: store, Ledger: ledger, Location: loc, Log: log.Named("contributions"), Now: time.Now}
}

type SubmitInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	Date      string
	Hours     float64
	Tasks     []string
	Skills    []string
	Rating    int
	Notes     *string
}

func cleanList(in []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Submit: simpan kontribusi + total kontributor, lalu XP lewat ledger.
// XP gagal → kontribusi dibatalkan supaya submit ulang tidak menggandakan jam.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.DailyContributionModel, error) {
	if in.ProjectID == uuid.Nil || in.UserID == uuid.Nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "project_id dan contributor_id wajib diisi")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "performance_rating harus 1..5")
	}
	if in.Hours < 0 || in.Hours > 24 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "hours_worked harus 0..24")
	}

	p, err := s.Projects.FindByID(ctx, in.ProjectID)
	if errors.Is(err, projectRepo.ErrProjectNotFound) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		s.Log.Error("[CONTRIBUTION] gagal ambil project", zap.Stringer("project_id", in.ProjectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data project")
	}
	if p.ProjectStatus != projectModel.ProjectStatusActive {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "Project tidak aktif")
	}
	if _, err := s.Projects.FindContributor(ctx, in.ProjectID, in.UserID); err != nil {
		if errors.Is(err, projectRepo.ErrContributorNotFound) {
			return nil, fiber.NewError(fiber.StatusForbidden, "Anda bukan kontributor project ini")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil data kontributor")
	}

	today := s.Now().In(s.Location).Format(time.DateOnly)
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = today
	}
	if _, err := time.ParseInLocation(time.DateOnly, date, s.Location); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date harus YYYY-MM-DD")
	}
	if date > today {
		return nil, fiber.NewError(fiber.StatusBadRequest, "date tidak boleh di masa depan")
	}

	skills := cleanList(in.Skills)
	m := &model.DailyContributionModel{
		DailyContributionProjectID:         in.ProjectID,
		DailyContributionContributorID:     in.UserID,
		DailyContributionDate:              date,
		DailyContributionHoursWorked:       in.Hours,
		DailyContributionTasksCompleted:    cleanList(in.Tasks),
		DailyContributionSkillsApplied:     skills,
		DailyContributionPerformanceRating: in.Rating,
		DailyContributionXPPointsEarned:    ContributionXP(in.Hours, in.Rating, len(skills)),
		DailyContributionNotes:             in.Notes,
	}
	if err := s.Store.Create(ctx, m); err != nil {
		if errors.Is(err, projectRepo.ErrContributorNotFound) {
			return nil, fiber.NewError(fiber.StatusForbidden, "Anda bukan kontributor project ini")
		}
		s.Log.Error("[CONTRIBUTION] gagal simpan", zap.Stringer("project_id", in.ProjectID), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Gagal menyimpan kontribusi")
	}

	xp := m.DailyContributionXPPointsEarned
	if xp > 0 {
		if _, err := s.Ledger.AddXP(ctx, in.UserID, xp, progressModel.ActivityEntry{
			Type:        ActivityDailyContribution,
			Description: fmt.Sprintf("Kontribusi %s (%.1f jam)", p.ProjectName, in.Hours),
			ReferenceID: "contribution:" + m.DailyContributionID.String(),
		}); err != nil {
			s.Log.Error("[CONTRIBUTION] XP gagal dicatat, kontribusi dibatalkan",
				zap.Stringer("contribution_id", m.DailyContributionID),
				zap.Stringer("user_id", in.UserID),
				zap.Error(err))
			s.rollback(m)
			return nil, err
		}
	}

	s.Log.Info("[CONTRIBUTION] tersimpan",
		zap.Stringer("contribution_id", m.DailyContributionID),
		zap.Stringer("user_id", in.UserID),
		zap.Int("xp", xp))
	return m, nil
}

// rollback pakai context baru; request bisa saja sudah dibatalkan.
func (s *Service) rollback(m *model.DailyContributionModel) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Store.Delete(ctx, m); err != nil {
		s.Log.Error("[CONTRIBUTION] gagal membatalkan kontribusi",
			zap.Stringer("contribution_id", m.DailyContributionID),
			zap.Stringer("user_id", m.DailyContributionContributorID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, projectID uuid.UUID, contributorID *uuid.UUID, offset, limit int) ([]model.DailyContributionModel, int64, error) {
	rows, total, err := s.Store.List(ctx, projectID, contributorID, offset, limit)
	if err != nil {
		s.Log.Error("[CONTRIBUTION] gagal list", zap.Stringer("project_id", projectID), zap.Error(err))
		return nil, 0, fiber.NewError(fiber.StatusInternalServerError, "Gagal mengambil kontribusi")
	}
	return rows, total, nil
}
