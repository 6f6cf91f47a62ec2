package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"ecoguard_backend/internals/features/field/rewards/service"
	helper "ecoguard_backend/internals/helpers"
)

type ProjectCompletionController struct {
	Service *service.Service
}

func NewProjectCompletionController(svc *service.Service) *ProjectCompletionController {
	return &ProjectCompletionController{Service: svc}
}

// POST /api/a/field/projects/:project_id/complete
func (ctl *ProjectCompletionController) Complete(c *fiber.Ctx) error {
	projectID, err := helper.ParseUUIDParam(c, "project_id")
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	res, err := ctl.Service.CompleteProject(c.UserContext(), projectID)
	if err != nil {
		var ee *service.EligibilityError
		if errors.As(err, &ee) {
			return helper.JsonErrorWithCode(c, fiber.StatusUnprocessableEntity, "NOT_ELIGIBLE", "Project belum memenuhi syarat penyelesaian: "+ee.Reason, ee)
		}
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Project selesai, reward dibagikan", res)
}
