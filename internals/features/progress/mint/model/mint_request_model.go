package model

import (
	"time"

	"github.com/google/uuid"
)

type MintStatus string

const (
	MintPending   MintStatus = "pending"
	MintInFlight  MintStatus = "in_flight" // sudah di-claim worker sampai lease habis
	MintSucceeded MintStatus = "succeeded"
	MintFailed    MintStatus = "failed"
	MintSkipped   MintStatus = "skipped" // integrasi mint dimatikan
)

// MintRequestModel = outbox; ditulis dalam transaksi yang sama dengan ledger.
type MintRequestModel struct {
	MintRequestID            uuid.UUID  `gorm:"type:uuid;primaryKey;column:mint_request_id" json:"mint_request_id"`
	MintRequestUserID        uuid.UUID  `gorm:"type:uuid;not null;column:mint_request_user_id;index:idx_mint_requests_user" json:"mint_request_user_id"`
	MintRequestWalletAddress string     `gorm:"type:varchar(42);not null;column:mint_request_wallet_address" json:"mint_request_wallet_address"`
	MintRequestAmount        int        `gorm:"not null;column:mint_request_amount" json:"mint_request_amount"`
	MintRequestActivityType  string     `gorm:"type:varchar(64);column:mint_request_activity_type" json:"mint_request_activity_type"`
	MintRequestStatus        MintStatus `gorm:"type:varchar(16);not null;default:pending;column:mint_request_status;index:idx_mint_requests_status_updated,priority:1" json:"mint_request_status"`
	MintRequestAttempts      int        `gorm:"not null;default:0;column:mint_request_attempts" json:"mint_request_attempts"`
	MintRequestLeaseUntil    *time.Time `gorm:"column:mint_request_lease_until" json:"mint_request_lease_until,omitempty"`
	MintRequestTxHash        *string    `gorm:"type:varchar(100);column:mint_request_tx_hash" json:"mint_request_tx_hash,omitempty"`
	MintRequestLastError     *string    `gorm:"type:text;column:mint_request_last_error" json:"mint_request_last_error,omitempty"`
	MintRequestCreatedAt     time.Time  `gorm:"column:mint_request_created_at;autoCreateTime" json:"mint_request_created_at"`
	MintRequestUpdatedAt     time.Time  `gorm:"column:mint_request_updated_at;autoUpdateTime;index:idx_mint_requests_status_updated,priority:2" json:"mint_request_updated_at"`
}

func (MintRequestModel) TableName() string {
	return "mint_requests"
}
