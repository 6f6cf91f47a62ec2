package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"ecoguard_backend/internals/features/field/contributions/dto"
	"ecoguard_backend/internals/features/field/contributions/service"
	helper "ecoguard_backend/internals/helpers"
)

type DailyContributionController struct {
	Service   *service.Service
	Validator *validator.Validate
}

func NewDailyContributionController(svc *service.Service) *DailyContributionController {
	return &DailyContributionController{Service: svc, Validator: validator.New()}
}

// POST /api/u/field/projects/:project_id/contributions
func (ctl *DailyContributionController) Submit(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	var req dto.SubmitContributionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	m, err := ctl.Service.Submit(c.UserContext(), req.ToInput(projectID, userID))
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonCreated(c, "Kontribusi tersimpan", dto.FromModel(m))
}

// GET /api/u/field/projects/:project_id/contributions (milik sendiri)
func (ctl *DailyContributionController) ListMine(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Service.List(c.UserContext(), projectID, &userID, p.Offset, p.Limit)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonList(c, "ok", dto.FromModels(rows), helper.BuildPagination(total, p))
}
