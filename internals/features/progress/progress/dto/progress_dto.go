package dto

import (
	"strings"

	"github.com/google/uuid"

	"ecoguard_backend/internals/features/progress/progress/model"
	"ecoguard_backend/internals/features/progress/progress/service"
)

/* ===================== requests ===================== */

type SetWalletRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,len=42,startswith=0x"`
}

type ImpactRequest struct {
	TreesPlanted int     `json:"trees_planted"`
	CO2Offset    float64 `json:"co2_offset"`
	WaterSaved   float64 `json:"water_saved"`
}

// CompleteItemRequest: xp > 0 → item + XP sekali; xp 0 → hanya tandai item.
type CompleteItemRequest struct {
	XP          int            `json:"xp" validate:"gte=0,lte=100000"`
	Type        string         `json:"type" validate:"omitempty,max=64"`
	Description string         `json:"description" validate:"omitempty,max=500"`
	Impact      *ImpactRequest `json:"impact"`
}

// AddXPRequest: amount negatif = koreksi.
type AddXPRequest struct {
	Amount      int            `json:"amount" validate:"gte=-100000,lte=100000"`
	Type        string         `json:"type" validate:"required,max=64"`
	Description string         `json:"description" validate:"omitempty,max=500"`
	ReferenceID string         `json:"reference_id" validate:"omitempty,max=128"`
	Impact      *ImpactRequest `json:"impact"`
}

func (r *ImpactRequest) toModel() *model.EnvironmentalImpact {
	if r == nil {
		return nil
	}
	return &model.EnvironmentalImpact{TreesPlanted: r.TreesPlanted, CO2Offset: r.CO2Offset, WaterSaved: r.WaterSaved}
}

func (r *CompleteItemRequest) Activity(itemID string) model.ActivityEntry {
	typ := strings.TrimSpace(r.Type)
	if typ == "" {
		typ = "item_completion"
	}
	return model.ActivityEntry{
		Type:        typ,
		Description: strings.TrimSpace(r.Description),
		ReferenceID: itemID,
		Impact:      r.Impact.toModel(),
	}
}

func (r *AddXPRequest) Activity() model.ActivityEntry {
	return model.ActivityEntry{
		Type:        strings.TrimSpace(r.Type),
		Description: strings.TrimSpace(r.Description),
		ReferenceID: strings.TrimSpace(r.ReferenceID),
		Impact:      r.Impact.toModel(),
	}
}

/* ===================== responses ===================== */

type ProgressResponse struct {
	UserID          uuid.UUID                 `json:"user_id"`
	XPPoints        int                       `json:"xp_points"`
	Level           int                       `json:"level"`
	NextLevelXP     int                       `json:"next_level_xp"`
	ActivityHistory []model.ActivityEntry     `json:"activity_history"`
	Impact          model.EnvironmentalImpact `json:"environmental_impact"`
	WalletAddress   *string                   `json:"wallet_address,omitempty"`
	CompletedItems  []string                  `json:"completed_items"`
}

// nextLevelXP: XP minimal untuk level+1 → 10*level^2.
func nextLevelXP(level int) int {
	return 10 * level * level
}

func FromLedger(l *service.Ledger) ProgressResponse {
	history := l.History
	if history == nil {
		history = []model.ActivityEntry{}
	}
	items := l.CompletedItems
	if items == nil {
		items = []string{}
	}
	return ProgressResponse{
		UserID:          l.UserID,
		XPPoints:        l.XPPoints,
		Level:           l.Level,
		NextLevelXP:     nextLevelXP(l.Level),
		ActivityHistory: history,
		Impact:          l.Impact,
		WalletAddress:   l.WalletAddress,
		CompletedItems:  items,
	}
}

type CompleteItemResponse struct {
	ItemID   string           `json:"item_id"`
	Awarded  bool             `json:"awarded"`
	XP       int              `json:"xp"`
	Progress ProgressResponse `json:"progress"`
}
