package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mintModel "ecoguard_backend/internals/features/progress/mint/model"
	pointModel "ecoguard_backend/internals/features/progress/points/model"
	"ecoguard_backend/internals/features/progress/progress/model"
)

var ErrProgressNotFound = errors.New("user progress not found")

// Effects = baris tambahan yang ditulis dalam transaksi yang sama dengan ledger.
type Effects struct {
	PointLog *pointModel.UserPointLog
	Mints    []mintModel.MintRequestModel
}

// MutateFunc mengubah row (sudah di-lock). Effects nil = tidak ada perubahan, tidak ada write.
type MutateFunc func(p *model.UserProgress) (*Effects, error)

type Store interface {
	Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.UserProgress, error)
	Find(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error)
	ListPointLogs(ctx context.Context, userID uuid.UUID, offset, limit int) ([]pointModel.UserPointLog, int64, error)
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Mutate: SELECT ... FOR UPDATE (buat row kalau belum ada) → fn → save + log + outbox, satu transaksi.
func (s *GormStore) Mutate(ctx context.Context, userID uuid.UUID, fn MutateFunc) (*model.UserProgress, error) {
	var out *model.UserProgress
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockOrCreate(tx, userID)
		if err != nil {
			return err
		}
		eff, err := fn(p)
		if err != nil {
			return err
		}
		out = p
		if eff == nil {
			return nil
		}

		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if eff.PointLog != nil {
			if err := tx.Create(eff.PointLog).Error; err != nil {
				return err
			}
		}
		for i := range eff.Mints {
			if err := tx.Create(&eff.Mints[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockOrCreate(tx *gorm.DB, userID uuid.UUID) (*model.UserProgress, error) {
	var p model.UserProgress
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_progress_user_id = ?", userID).
		First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// pemakaian pertama; DO NOTHING kalau request paralel sudah membuatnya
	fresh := model.UserProgress{
		UserProgressUserID:          userID,
		UserProgressLevel:           1,
		UserProgressActivityHistory: datatypes.JSONSlice[model.ActivityEntry]{},
		UserProgressCompletedItems:  pq.StringArray{},
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_progress_user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_progress_user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) Find(ctx context.Context, userID uuid.UUID) (*model.UserProgress, error) {
	var p model.UserProgress
	err := s.DB.WithContext(ctx).Where("user_progress_user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormStore) ListPointLogs(ctx context.Context, userID uuid.UUID, offset, limit int) ([]pointModel.UserPointLog, int64, error) {
	var (
		rows  []pointModel.UserPointLog
		total int64
	)
	q := s.DB.WithContext(ctx).Model(&pointModel.UserPointLog{}).Where("user_point_log_user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at DESC").Order("user_point_log_id DESC").
		Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
