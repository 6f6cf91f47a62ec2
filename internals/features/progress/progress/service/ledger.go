package service

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"ecoguard_backend/internals/features/progress/progress/model"
)

const (
	HistoryCapacity = 50
	xpPerLevelUnit  = 10.0
)

var (
	ErrNegativeBalance = errors.New("xp balance cannot go below zero")
	ErrEmptyItemID     = errors.New("item id is required")
)

// LevelFor = floor(1 + sqrt(xp/10)); xp <= 0 → level 1.
func LevelFor(xp int) int {
	if xp <= 0 {
		return 1
	}
	return int(math.Floor(1 + math.Sqrt(float64(xp)/xpPerLevelUnit)))
}

// Ledger = state murni per akun; tidak tahu storage maupun mint.
type Ledger struct {
	UserID         uuid.UUID                 `json:"user_id"`
	XPPoints       int                       `json:"xp_points"`
	Level          int                       `json:"level"`
	History        []model.ActivityEntry     `json:"activity_history"`
	Impact         model.EnvironmentalImpact `json:"environmental_impact"`
	WalletAddress  *string                   `json:"wallet_address,omitempty"`
	CompletedItems []string                  `json:"completed_items"`
}

type EventKind string

const (
	EventXPAwarded     EventKind = "xp_awarded"
	EventLevelChanged  EventKind = "level_changed"
	EventMintRequested EventKind = "mint_requested"
)

type Event struct {
	Kind      EventKind
	UserID    uuid.UUID
	Amount    int
	Activity  string
	FromLevel int
	ToLevel   int
	Wallet    string
}

func NewLedger(userID uuid.UUID) Ledger {
	return Ledger{UserID: userID, Level: 1, History: []model.ActivityEntry{}, CompletedItems: []string{}}
}

func (l Ledger) HasCompleted(itemID string) bool {
	for _, it := range l.CompletedItems {
		if it == itemID {
			return true
		}
	}
	return false
}

// ApplyXP mengembalikan ledger baru + event; receiver tidak diubah.
func (l Ledger) ApplyXP(amount int, a model.ActivityEntry, now time.Time) (Ledger, []Event, error) {
	xp := l.XPPoints + amount
	if xp < 0 {
		return l, nil, ErrNegativeBalance
	}

	next := l
	next.XPPoints = xp
	next.Level = LevelFor(xp)

	a.XPEarned = amount
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
	n := len(l.History) + 1
	if n > HistoryCapacity {
		n = HistoryCapacity
	}
	history := make([]model.ActivityEntry, 0, n)
	history = append(history, a)
	for _, h := range l.History {
		if len(history) == HistoryCapacity {
			break
		}
		history = append(history, h)
	}
	next.History = history

	if a.Impact != nil {
		next.Impact.TreesPlanted += a.Impact.TreesPlanted
		next.Impact.CO2Offset += a.Impact.CO2Offset
		next.Impact.WaterSaved += a.Impact.WaterSaved
	}

	events := []Event{{Kind: EventXPAwarded, UserID: l.UserID, Amount: amount, Activity: a.Type}}
	if next.Level != l.Level {
		events = append(events, Event{Kind: EventLevelChanged, UserID: l.UserID, FromLevel: l.Level, ToLevel: next.Level})
	}
	if amount > 0 && next.WalletAddress != nil && *next.WalletAddress != "" {
		events = append(events, Event{Kind: EventMintRequested, UserID: l.UserID, Amount: amount, Activity: a.Type, Wallet: *next.WalletAddress})
	}
	return next, events, nil
}

// CompleteItem idempotent; false kalau item sudah ada.
func (l Ledger) CompleteItem(itemID string) (Ledger, bool, error) {
	if itemID == "" {
		return l, false, ErrEmptyItemID
	}
	if l.HasCompleted(itemID) {
		return l, false, nil
	}
	next := l
	next.CompletedItems = append(append(make([]string, 0, len(l.CompletedItems)+1), l.CompletedItems...), itemID)
	return next, true, nil
}

/* ===================== model mapping ===================== */

func FromModel(p *model.UserProgress) Ledger {
	l := Ledger{
		UserID:   p.UserProgressUserID,
		XPPoints: p.UserProgressXPPoints,
		Level:    p.UserProgressLevel,
		History:  append([]model.ActivityEntry{}, p.UserProgressActivityHistory...),
		Impact: model.EnvironmentalImpact{
			TreesPlanted: p.UserProgressTreesPlanted,
			CO2Offset:    p.UserProgressCO2Offset,
			WaterSaved:   p.UserProgressWaterSaved,
		},
		WalletAddress:  p.UserProgressWalletAddress,
		CompletedItems: append([]string{}, p.UserProgressCompletedItems...),
	}
	if l.Level < 1 {
		l.Level = LevelFor(l.XPPoints)
	}
	return l
}

// ApplyTo menyalin state ledger ke row (ID & timestamp tidak disentuh).
func (l Ledger) ApplyTo(p *model.UserProgress) {
	p.UserProgressUserID = l.UserID
	p.UserProgressXPPoints = l.XPPoints
	p.UserProgressLevel = l.Level
	p.UserProgressActivityHistory = l.History
	p.UserProgressTreesPlanted = l.Impact.TreesPlanted
	p.UserProgressCO2Offset = l.Impact.CO2Offset
	p.UserProgressWaterSaved = l.Impact.WaterSaved
	p.UserProgressWalletAddress = l.WalletAddress
	p.UserProgressCompletedItems = l.CompletedItems
}
