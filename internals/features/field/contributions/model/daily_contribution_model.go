// internals/features/field/contributions/model/daily_contribution_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DailyContributionModel: laporan kerja harian kontributor. XP dihitung saat submit, tidak pernah diubah.
type DailyContributionModel struct {
	DailyContributionID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:daily_contribution_id" json:"daily_contribution_id"`
	DailyContributionProjectID     uuid.UUID `gorm:"type:uuid;not null;column:daily_contribution_project_id;index:idx_daily_contributions_project_contributor,priority:1" json:"daily_contribution_project_id"`
	DailyContributionContributorID uuid.UUID `gorm:"type:uuid;not null;column:daily_contribution_contributor_id;index:idx_daily_contributions_project_contributor,priority:2" json:"daily_contribution_contributor_id"`
	DailyContributionDate          string    `gorm:"type:varchar(10);not null;column:daily_contribution_date;index" json:"daily_contribution_date"`

	DailyContributionHoursWorked       float64        `gorm:"type:numeric(5,2);not null;column:daily_contribution_hours_worked" json:"daily_contribution_hours_worked"`
	DailyContributionTasksCompleted    pq.StringArray `gorm:"type:text[];not null;default:'{}';column:daily_contribution_tasks_completed" json:"daily_contribution_tasks_completed"`
	DailyContributionSkillsApplied     pq.StringArray `gorm:"type:text[];not null;default:'{}';column:daily_contribution_skills_applied" json:"daily_contribution_skills_applied"`
	DailyContributionPerformanceRating int            `gorm:"type:smallint;not null;check:daily_contribution_performance_rating BETWEEN 1 AND 5;column:daily_contribution_performance_rating" json:"daily_contribution_performance_rating"`
	DailyContributionXPPointsEarned    int            `gorm:"not null;column:daily_contribution_xp_points_earned" json:"daily_contribution_xp_points_earned"`
	DailyContributionNotes             *string        `gorm:"type:text;column:daily_contribution_notes" json:"daily_contribution_notes,omitempty"`

	DailyContributionCreatedAt time.Time `gorm:"column:daily_contribution_created_at;autoCreateTime" json:"daily_contribution_created_at"`
}

func (DailyContributionModel) TableName() string {
	return "daily_contributions"
}
