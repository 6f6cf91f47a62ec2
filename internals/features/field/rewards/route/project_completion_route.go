package route

import (
	"github.com/gofiber/fiber/v2"

	"ecoguard_backend/internals/constants"
	rewardController "ecoguard_backend/internals/features/field/rewards/controller"
	"ecoguard_backend/internals/features/field/rewards/service"
	authMiddleware "ecoguard_backend/internals/middlewares/auth"
)

// ProjectCompletionAdminRoutes → /api/a/field/projects/:project_id/complete
func ProjectCompletionAdminRoutes(router fiber.Router, svc *service.Service) {
	ctl := rewardController.NewProjectCompletionController(svc)

	router.Post("/field/projects/:project_id/complete",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("penyelesaian project"), constants.AdminAndAbove),
		ctl.Complete)
}
