package dto

import (
	"time"

	"ecoguard_backend/internals/features/progress/points/model"
)

type PointLogResponse struct {
	ID           uint      `json:"id"`
	Points       int       `json:"points"`
	ActivityType string    `json:"activity_type"`
	ReferenceID  *string   `json:"reference_id,omitempty"`
	Description  string    `json:"description"`
	Balance      int       `json:"balance"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromModels(rows []model.UserPointLog) []PointLogResponse {
	out := make([]PointLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, PointLogResponse{
			ID:           r.UserPointLogID,
			Points:       r.UserPointLogPoints,
			ActivityType: r.UserPointLogActivityType,
			ReferenceID:  r.UserPointLogReferenceID,
			Description:  r.UserPointLogDescription,
			Balance:      r.UserPointLogBalance,
			CreatedAt:    r.CreatedAt,
		})
	}
	return out
}
