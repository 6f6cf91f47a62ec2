package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// EnvironmentalImpact: running total; delta negatif boleh (mis. laporan deforestasi).
type EnvironmentalImpact struct {
	TreesPlanted int     `json:"trees_planted"`
	CO2Offset    float64 `json:"co2_offset"`
	WaterSaved   float64 `json:"water_saved"`
}

func (i EnvironmentalImpact) IsZero() bool {
	return i.TreesPlanted == 0 && i.CO2Offset == 0 && i.WaterSaved == 0
}

// ActivityEntry = satu baris riwayat (terbaru di depan, max 50).
type ActivityEntry struct {
	Type        string               `json:"type"`
	Description string               `json:"description"`
	XPEarned    int                  `json:"xp_earned"`
	ReferenceID string               `json:"reference_id,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
	Impact      *EnvironmentalImpact `json:"impact,omitempty"`
}

func (a ActivityEntry) ReferenceIDPtr() *string {
	if a.ReferenceID == "" {
		return nil
	}
	ref := a.ReferenceID
	return &ref
}

type UserProgress struct {
	UserProgressID     uint      `gorm:"column:user_progress_id;primaryKey" json:"user_progress_id"`
	UserProgressUserID uuid.UUID `gorm:"column:user_progress_user_id;type:uuid;not null;unique" json:"user_progress_user_id"`

	UserProgressXPPoints int `gorm:"column:user_progress_xp_points;not null;default:0" json:"user_progress_xp_points"`
	UserProgressLevel    int `gorm:"column:user_progress_level;not null;default:1" json:"user_progress_level"`

	UserProgressActivityHistory datatypes.JSONSlice[ActivityEntry] `gorm:"column:user_progress_activity_history;type:jsonb;not null;default:'[]'" json:"user_progress_activity_history"`

	// environmental impact
	UserProgressTreesPlanted int     `gorm:"column:user_progress_trees_planted;not null;default:0" json:"user_progress_trees_planted"`
	UserProgressCO2Offset    float64 `gorm:"column:user_progress_co2_offset;not null;default:0" json:"user_progress_co2_offset"`
	UserProgressWaterSaved   float64 `gorm:"column:user_progress_water_saved;not null;default:0" json:"user_progress_water_saved"`

	UserProgressWalletAddress  *string        `gorm:"column:user_progress_wallet_address;type:varchar(42)" json:"user_progress_wallet_address,omitempty"`
	UserProgressCompletedItems pq.StringArray `gorm:"column:user_progress_completed_items;type:text[];not null;default:'{}'" json:"user_progress_completed_items"`

	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
