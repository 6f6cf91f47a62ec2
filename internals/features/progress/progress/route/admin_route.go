package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ecoguard_backend/internals/constants"
	progressController "ecoguard_backend/internals/features/progress/progress/controller"
	"ecoguard_backend/internals/features/progress/progress/service"
	authMiddleware "ecoguard_backend/internals/middlewares/auth"
)

// AdminProgressRoutes → /api/a/progress
func AdminProgressRoutes(router fiber.Router, svc *service.Service, log *zap.Logger) {
	ctl := progressController.NewUserProgressController(svc, log)
	g := router.Group("/progress",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("progress user"), constants.AdminAndAbove))

	g.Post("/:user_id/items/:item_id/complete", ctl.CompleteItem)
	g.Post("/:user_id/xp", ctl.AddXP)
}
