// internals/features/field/projects/controller/project_controller.go
package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ecoguard_backend/internals/features/field/projects/dto"
	"ecoguard_backend/internals/features/field/projects/model"
	"ecoguard_backend/internals/features/field/projects/repository"
	helper "ecoguard_backend/internals/helpers"
)

type ProjectController struct {
	Repo      *repository.ProjectRepository
	Validator *validator.Validate
	Log       *zap.Logger
}

func NewProjectController(repo *repository.ProjectRepository, log *zap.Logger) *ProjectController {
	return &ProjectController{
		Repo:      repo,
		Validator: validator.New(),
		Log:       log.Named("projects"),
	}
}

// POST /api/a/field/projects
func (ctl *ProjectController) Create(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	req.Normalize()
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m := req.ToModel()
	if err := ctl.Repo.Create(c.UserContext(), m); err != nil {
		ctl.Log.Error("[PROJECT] gagal membuat project", zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal membuat project")
	}
	ctl.Log.Info("[PROJECT] dibuat", zap.Stringer("project_id", m.ProjectID), zap.Int("sites", len(m.ProjectSites)))
	return helper.JsonCreated(c, "Project berhasil dibuat", m)
}

// GET /api/a/field/projects/:project_id
func (ctl *ProjectController) GetByID(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	p, err := ctl.Repo.FindByID(c.UserContext(), id)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Project tidak ditemukan")
	}
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil project")
	}
	return helper.JsonOK(c, "ok", p)
}

// PATCH /api/a/field/projects/:project_id/progress
func (ctl *ProjectController) UpdateProgress(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.UpdateProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	var status *model.ProjectStatus
	if req.ProjectStatus != nil {
		st := model.ProjectStatus(*req.ProjectStatus)
		status = &st
	}
	if err := ctl.Repo.UpdateProgress(c.UserContext(), id, *req.ProjectAverageDailyProgress, status); err != nil {
		if errors.Is(err, repository.ErrProjectNotActive) {
			return helper.JsonError(c, fiber.StatusConflict, "Project tidak ditemukan atau sudah selesai")
		}
		ctl.Log.Error("[PROJECT] gagal update progress", zap.Stringer("project_id", id), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal update progress")
	}
	return helper.JsonUpdated(c, "Progress diperbarui", fiber.Map{
		"project_id":                     id,
		"project_average_daily_progress": *req.ProjectAverageDailyProgress,
	})
}

// POST /api/a/field/projects/:project_id/contributors
func (ctl *ProjectController) AddContributor(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.AddContributorRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if _, err := ctl.Repo.FindByID(c.UserContext(), id); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Project tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil project")
	}

	m := req.ToModel(id)
	if err := ctl.Repo.AddContributor(c.UserContext(), m); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return helper.JsonError(c, fiber.StatusConflict, "User sudah terdaftar sebagai kontributor")
		}
		ctl.Log.Error("[PROJECT] gagal tambah kontributor", zap.Stringer("project_id", id), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menambah kontributor")
	}
	return helper.JsonCreated(c, "Kontributor ditambahkan", m)
}

// POST /api/a/field/projects/:project_id/sites
func (ctl *ProjectController) AddSite(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	var req dto.SiteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}
	if _, err := ctl.Repo.FindByID(c.UserContext(), id); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return helper.JsonError(c, fiber.StatusNotFound, "Project tidak ditemukan")
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil project")
	}

	site := req.ToModel(id)
	if err := ctl.Repo.AddSite(c.UserContext(), &site); err != nil {
		ctl.Log.Error("[PROJECT] gagal tambah site", zap.Stringer("project_id", id), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal menambah site")
	}
	return helper.JsonCreated(c, "Site ditambahkan", site)
}
