// file: internals/features/field/projects/dto/project_dto.go
package dto

import (
	"strings"

	"github.com/google/uuid"

	"ecoguard_backend/internals/features/field/projects/model"
)

/* =========================================================
   REQUEST DTO
   ========================================================= */

type SiteRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=160"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

// POST /api/a/field/projects
type CreateProjectRequest struct {
	ProjectName      string        `json:"project_name" validate:"required,min=3,max=160"`
	ProjectLocation  string        `json:"project_location" validate:"required,min=3"`
	ProjectLatitude  *float64      `json:"project_latitude" validate:"required,latitude"`
	ProjectLongitude *float64      `json:"project_longitude" validate:"required,longitude"`
	ProjectStatus    *string       `json:"project_status" validate:"omitempty,oneof=draft active"`
	ProjectSites     []SiteRequest `json:"project_sites" validate:"omitempty,dive"`
}

// PATCH /api/a/field/projects/:project_id/progress
type UpdateProgressRequest struct {
	ProjectAverageDailyProgress *float64 `json:"project_average_daily_progress" validate:"required,gte=0,lte=100"`
	ProjectStatus               *string  `json:"project_status" validate:"omitempty,oneof=draft active"`
}

// POST /api/a/field/projects/:project_id/contributors
type AddContributorRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Name   string    `json:"name" validate:"required,min=2,max=120"`
	Role   string    `json:"role" validate:"required,oneof=ngo_staff community_member"`
}

func (r *CreateProjectRequest) Normalize() {
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.ProjectLocation = strings.TrimSpace(r.ProjectLocation)
	for i := range r.ProjectSites {
		r.ProjectSites[i].Name = strings.TrimSpace(r.ProjectSites[i].Name)
	}
}

func (r CreateProjectRequest) ToModel() *model.ProjectModel {
	status := model.ProjectStatusDraft
	if r.ProjectStatus != nil {
		status = model.ProjectStatus(*r.ProjectStatus)
	}
	m := &model.ProjectModel{
		ProjectName:      r.ProjectName,
		ProjectLocation:  r.ProjectLocation,
		ProjectLatitude:  *r.ProjectLatitude,
		ProjectLongitude: *r.ProjectLongitude,
		ProjectStatus:    status,
	}
	for _, s := range r.ProjectSites {
		m.ProjectSites = append(m.ProjectSites, s.ToModel(uuid.Nil))
	}
	return m
}

func (s SiteRequest) ToModel(projectID uuid.UUID) model.ProjectSiteModel {
	return model.ProjectSiteModel{
		ProjectSiteProjectID: projectID,
		ProjectSiteName:      s.Name,
		ProjectSiteLatitude:  *s.Latitude,
		ProjectSiteLongitude: *s.Longitude,
	}
}

func (r AddContributorRequest) ToModel(projectID uuid.UUID) *model.ProjectContributorModel {
	return &model.ProjectContributorModel{
		ProjectContributorProjectID: projectID,
		ProjectContributorUserID:    r.UserID,
		ProjectContributorName:      strings.TrimSpace(r.Name),
		ProjectContributorRole:      model.ContributorRole(r.Role),
	}
}
