// internals/features/field/projects/model/project_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

type ContributorRole string

const (
	ContributorRoleNGOStaff  ContributorRole = "ngo_staff"
	ContributorRoleCommunity ContributorRole = "community_member"
)

type ProjectModel struct {
	ProjectID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:project_id" json:"project_id"`

	ProjectName     string `gorm:"type:varchar(160);not null;column:project_name" json:"project_name"`
	ProjectLocation string `gorm:"type:text;not null;column:project_location" json:"project_location"` // teks lokasi untuk oracle foto

	// Koordinat utama proyek (geofence anggota komunitas)
	ProjectLatitude  float64 `gorm:"not null;column:project_latitude" json:"project_latitude"`
	ProjectLongitude float64 `gorm:"not null;column:project_longitude" json:"project_longitude"`

	ProjectStatus               ProjectStatus `gorm:"type:varchar(16);not null;default:draft;column:project_status;index:idx_projects_status" json:"project_status"`
	ProjectAverageDailyProgress float64       `gorm:"type:numeric(5,2);not null;default:0;column:project_average_daily_progress" json:"project_average_daily_progress"` // 0..100
	ProjectCompletedAt          *time.Time    `gorm:"column:project_completed_at" json:"project_completed_at,omitempty"`

	ProjectSites        []ProjectSiteModel        `gorm:"foreignKey:ProjectSiteProjectID;references:ProjectID" json:"project_sites,omitempty"`
	ProjectContributors []ProjectContributorModel `gorm:"foreignKey:ProjectContributorProjectID;references:ProjectID" json:"project_contributors,omitempty"`

	ProjectCreatedAt time.Time      `gorm:"column:project_created_at;autoCreateTime" json:"project_created_at"`
	ProjectUpdatedAt time.Time      `gorm:"column:project_updated_at;autoUpdateTime" json:"project_updated_at"`
	ProjectDeletedAt gorm.DeletedAt `gorm:"column:project_deleted_at;index" json:"-"`
}

func (ProjectModel) TableName() string {
	return "projects"
}

// Titik geofence tambahan (staf NGO boleh check-in di site mana pun).
type ProjectSiteModel struct {
	ProjectSiteID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:project_site_id" json:"project_site_id"`
	ProjectSiteProjectID uuid.UUID `gorm:"type:uuid;not null;column:project_site_project_id;index:idx_project_sites_project" json:"project_site_project_id"`
	ProjectSiteName      string    `gorm:"type:varchar(160);not null;column:project_site_name" json:"project_site_name"`
	ProjectSiteLatitude  float64   `gorm:"not null;column:project_site_latitude" json:"project_site_latitude"`
	ProjectSiteLongitude float64   `gorm:"not null;column:project_site_longitude" json:"project_site_longitude"`
	ProjectSiteCreatedAt time.Time `gorm:"column:project_site_created_at;autoCreateTime" json:"project_site_created_at"`
}

func (ProjectSiteModel) TableName() string {
	return "project_sites"
}

// Kontributor per proyek; user_id = id akun (ledger XP).
type ProjectContributorModel struct {
	ProjectContributorID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey;column:project_contributor_id" json:"project_contributor_id"`
	ProjectContributorProjectID uuid.UUID       `gorm:"type:uuid;not null;column:project_contributor_project_id;uniqueIndex:uq_project_contributor" json:"project_contributor_project_id"`
	ProjectContributorUserID    uuid.UUID       `gorm:"type:uuid;not null;column:project_contributor_user_id;uniqueIndex:uq_project_contributor" json:"project_contributor_user_id"`
	ProjectContributorName      string          `gorm:"type:varchar(120);not null;column:project_contributor_name" json:"project_contributor_name"`
	ProjectContributorRole      ContributorRole `gorm:"type:varchar(24);not null;column:project_contributor_role" json:"project_contributor_role"`
	ProjectContributorJoinDate  time.Time       `gorm:"column:project_contributor_join_date;autoCreateTime" json:"project_contributor_join_date"`

	// running totals
	ProjectContributorTotalHours float64 `gorm:"not null;default:0;column:project_contributor_total_hours" json:"project_contributor_total_hours"`
	ProjectContributorXPPoints   int     `gorm:"not null;default:0;column:project_contributor_xp_points" json:"project_contributor_xp_points"`

	// diisi sekali saat reward penyelesaian masuk ke total
	ProjectContributorCompletionAppliedAt *time.Time `gorm:"column:project_contributor_completion_applied_at" json:"project_contributor_completion_applied_at,omitempty"`

	ProjectContributorUpdatedAt time.Time `gorm:"column:project_contributor_updated_at;autoUpdateTime" json:"project_contributor_updated_at"`
}

func (ProjectContributorModel) TableName() string {
	return "project_contributors"
}
