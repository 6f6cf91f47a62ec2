package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/progress/mint/model"
)

type MintRequestRepository struct {
	DB *gorm.DB
}

func NewMintRequestRepository(db *gorm.DB) *MintRequestRepository {
	return &MintRequestRepository{DB: db}
}

// Claim: pending/failed (atau in_flight yang lease-nya habis) → in_flight, attempts += 1.
// false kalau row sudah dipegang worker lain atau sudah selesai.
func (r *MintRequestRepository) Claim(ctx context.Context, id uuid.UUID, leaseUntil time.Time) (bool, error) {
	now := time.Now()
	res := r.DB.WithContext(ctx).Model(&model.MintRequestModel{}).
		Where("mint_request_id = ?", id).
		Where("(mint_request_status IN ? OR (mint_request_status = ? AND mint_request_lease_until < ?))",
			[]model.MintStatus{model.MintPending, model.MintFailed}, model.MintInFlight, now).
		Updates(map[string]any{
			"mint_request_status":      model.MintInFlight,
			"mint_request_lease_until": leaseUntil,
			"mint_request_attempts":    gorm.Expr("mint_request_attempts + 1"),
			"mint_request_updated_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkResult menyimpan hasil percobaan yang sedang di-claim dan melepas lease.
func (r *MintRequestRepository) MarkResult(ctx context.Context, id uuid.UUID, status model.MintStatus, txHash, lastError *string) error {
	return r.DB.WithContext(ctx).Model(&model.MintRequestModel{}).
		Where("mint_request_id = ? AND mint_request_status = ?", id, model.MintInFlight).
		Updates(map[string]any{
			"mint_request_status":      status,
			"mint_request_tx_hash":     txHash,
			"mint_request_last_error":  lastError,
			"mint_request_lease_until": nil,
			"mint_request_updated_at":  time.Now(),
		}).Error
}

// ListRetryable: pending/failed yang belum disentuh sejak `before`, plus in_flight yang lease-nya habis.
// attempts < maxAttempts.
func (r *MintRequestRepository) ListRetryable(ctx context.Context, before time.Time, maxAttempts, limit int) ([]model.MintRequestModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []model.MintRequestModel
	err := r.DB.WithContext(ctx).
		Where("((mint_request_status IN ? AND mint_request_updated_at < ?) OR (mint_request_status = ? AND mint_request_lease_until < ?))",
			[]model.MintStatus{model.MintPending, model.MintFailed}, before, model.MintInFlight, time.Now()).
		Where("mint_request_attempts < ?", maxAttempts).
		Order("mint_request_created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *MintRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]model.MintRequestModel, int64, error) {
	var (
		rows  []model.MintRequestModel
		total int64
	)
	q := r.DB.WithContext(ctx).Model(&model.MintRequestModel{}).Where("mint_request_user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("mint_request_created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
