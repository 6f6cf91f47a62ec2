package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/field/contributions/model"
	projectModel "ecoguard_backend/internals/features/field/projects/model"
	projectRepo "ecoguard_backend/internals/features/field/projects/repository"
)

type Store interface {
	Create(ctx context.Context, m *model.DailyContributionModel) error
	Delete(ctx context.Context, m *model.DailyContributionModel) error
	List(ctx context.Context, projectID uuid.UUID, contributorID *uuid.UUID, offset, limit int) ([]model.DailyContributionModel, int64, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.DailyContributionModel, error)
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var _ Store = (*GormStore)(nil)

// Create: insert kontribusi + tambah total jam/XP kontributor dalam satu transaksi.
func (s *GormStore) Create(ctx context.Context, m *model.DailyContributionModel) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return addContributorTotals(tx, m, 1)
	})
}

// Delete membatalkan Create (row + total kontributor).
func (s *GormStore) Delete(ctx context.Context, m *model.DailyContributionModel) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("daily_contribution_id = ?", m.DailyContributionID).
			Delete(&model.DailyContributionModel{}).Error; err != nil {
			return err
		}
		return addContributorTotals(tx, m, -1)
	})
}

func addContributorTotals(tx *gorm.DB, m *model.DailyContributionModel, sign int) error {
	hours := m.DailyContributionHoursWorked * float64(sign)
	xp := m.DailyContributionXPPointsEarned * sign
	res := tx.Model(&projectModel.ProjectContributorModel{}).
		Where("project_contributor_project_id = ? AND project_contributor_user_id = ?",
			m.DailyContributionProjectID, m.DailyContributionContributorID).
		Updates(map[string]any{
			"project_contributor_total_hours": gorm.Expr("project_contributor_total_hours + ?", hours),
			"project_contributor_xp_points":   gorm.Expr("project_contributor_xp_points + ?", xp),
			"project_contributor_updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return projectRepo.ErrContributorNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, projectID uuid.UUID, contributorID *uuid.UUID, offset, limit int) ([]model.DailyContributionModel, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.DailyContributionModel{}).
		Where("daily_contribution_project_id = ?", projectID)
	if contributorID != nil {
		q = q.Where("daily_contribution_contributor_id = ?", *contributorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.DailyContributionModel
	if err := q.Order("daily_contribution_date DESC, daily_contribution_created_at DESC").
		Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListByProject: semua kontribusi project (dipakai reward calculator).
func (s *GormStore) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.DailyContributionModel, error) {
	var rows []model.DailyContributionModel
	err := s.DB.WithContext(ctx).
		Where("daily_contribution_project_id = ?", projectID).
		Order("daily_contribution_date ASC").
		Find(&rows).Error
	return rows, err
}
