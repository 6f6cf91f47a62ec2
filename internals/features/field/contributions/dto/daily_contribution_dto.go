package dto

import (
	"strings"

	"github.com/google/uuid"

	"ecoguard_backend/internals/features/field/contributions/model"
	"ecoguard_backend/internals/features/field/contributions/service"
)

type SubmitContributionRequest struct {
	Date              string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	HoursWorked       *float64 `json:"hours_worked" validate:"required,gte=0,lte=24"`
	TasksCompleted    []string `json:"tasks_completed" validate:"omitempty,max=50,dive,max=200"`
	SkillsApplied     []string `json:"skills_applied" validate:"omitempty,max=20,dive,max=100"`
	PerformanceRating int      `json:"performance_rating" validate:"required,min=1,max=5"`
	Notes             *string  `json:"notes" validate:"omitempty,max=1000"`
}

func (r *SubmitContributionRequest) ToInput(projectID, userID uuid.UUID) service.SubmitInput {
	var notes *string
	if r.Notes != nil {
		if n := strings.TrimSpace(*r.Notes); n != "" {
			notes = &n
		}
	}
	return service.SubmitInput{
		ProjectID: projectID,
		UserID:    userID,
		Date:      strings.TrimSpace(r.Date),
		Hours:     *r.HoursWorked,
		Tasks:     r.TasksCompleted,
		Skills:    r.SkillsApplied,
		Rating:    r.PerformanceRating,
		Notes:     notes,
	}
}

type ContributionResponse struct {
	ID                uuid.UUID `json:"id"`
	ProjectID         uuid.UUID `json:"project_id"`
	ContributorID     uuid.UUID `json:"contributor_id"`
	Date              string    `json:"date"`
	HoursWorked       float64   `json:"hours_worked"`
	TasksCompleted    []string  `json:"tasks_completed"`
	SkillsApplied     []string  `json:"skills_applied"`
	PerformanceRating int       `json:"performance_rating"`
	XPPointsEarned    int       `json:"xp_points_earned"`
	Notes             *string   `json:"notes,omitempty"`
}

func FromModel(m *model.DailyContributionModel) ContributionResponse {
	return ContributionResponse{
		ID:                m.DailyContributionID,
		ProjectID:         m.DailyContributionProjectID,
		ContributorID:     m.DailyContributionContributorID,
		Date:              m.DailyContributionDate,
		HoursWorked:       m.DailyContributionHoursWorked,
		TasksCompleted:    append([]string{}, m.DailyContributionTasksCompleted...),
		SkillsApplied:     append([]string{}, m.DailyContributionSkillsApplied...),
		PerformanceRating: m.DailyContributionPerformanceRating,
		XPPointsEarned:    m.DailyContributionXPPointsEarned,
		Notes:             m.DailyContributionNotes,
	}
}

func FromModels(rows []model.DailyContributionModel) []ContributionResponse {
	out := make([]ContributionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
