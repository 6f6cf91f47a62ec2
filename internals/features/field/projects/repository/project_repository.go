package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/field/projects/model"
)

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrContributorNotFound = errors.New("contributor not found")
	ErrProjectNotActive    = errors.New("project is not active")
)

type ProjectRepository struct {
	DB *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{DB: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.ProjectModel) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

// FindByID memuat proyek + sites + contributors.
func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProjectModel, error) {
	var p model.ProjectModel
	err := r.DB.WithContext(ctx).
		Preload("ProjectSites", func(db *gorm.DB) *gorm.DB { return db.Order("project_site_created_at ASC") }).
		Preload("ProjectContributors", func(db *gorm.DB) *gorm.DB { return db.Order("project_contributor_join_date ASC") }).
		Where("project_id = ?", id).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) FindContributor(ctx context.Context, projectID, userID uuid.UUID) (*model.ProjectContributorModel, error) {
	var c model.ProjectContributorModel
	err := r.DB.WithContext(ctx).
		Where("project_contributor_project_id = ? AND project_contributor_user_id = ?", projectID, userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrContributorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ProjectRepository) AddContributor(ctx context.Context, c *model.ProjectContributorModel) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *ProjectRepository) AddSite(ctx context.Context, s *model.ProjectSiteModel) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// UpdateProgress set average daily progress (dan status opsional).
func (r *ProjectRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64, status *model.ProjectStatus) error {
	updates := map[string]any{
		"project_average_daily_progress": progress,
		"project_updated_at":             time.Now(),
	}
	if status != nil {
		updates["project_status"] = *status
	}
	res := r.DB.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("project_id = ? AND project_status <> ?", id, model.ProjectStatusCompleted).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotActive
	}
	return nil
}

// ApplyCompletionTotals: xp += reward, total jam = jumlah jam kontribusi.
// Hanya sekali per kontributor; panggilan ulang = no-op.
func (r *ProjectRepository) ApplyCompletionTotals(ctx context.Context, projectID, userID uuid.UUID, totalHours float64, xp int) error {
	now := time.Now()
	res := r.DB.WithContext(ctx).Model(&model.ProjectContributorModel{}).
		Where("project_contributor_project_id = ? AND project_contributor_user_id = ?", projectID, userID).
		Where("project_contributor_completion_applied_at IS NULL").
		Updates(map[string]any{
			"project_contributor_total_hours":           totalHours,
			"project_contributor_xp_points":             gorm.Expr("project_contributor_xp_points + ?", xp),
			"project_contributor_completion_applied_at": now,
			"project_contributor_updated_at":            now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// sudah diterapkan, atau memang bukan kontributor
		_, err := r.FindContributor(ctx, projectID, userID)
		return err
	}
	return nil
}

// MarkCompleted hanya berhasil dari status active.
func (r *ProjectRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("project_id = ? AND project_status = ?", id, model.ProjectStatusActive).
		Updates(map[string]any{
			"project_status":       model.ProjectStatusCompleted,
			"project_completed_at": at,
			"project_updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProjectNotActive
	}
	return nil
}
