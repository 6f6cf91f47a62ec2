package routes

import (
	"github.com/gofiber/fiber/v2"

	pointController "ecoguard_backend/internals/features/progress/points/controller"
	progressService "ecoguard_backend/internals/features/progress/progress/service"
)

// UserPointRoutes → /api/u/progress/logs
func UserPointRoutes(router fiber.Router, ledger *progressService.Service) {
	ctl := pointController.NewUserPointLogController(ledger)
	router.Get("/progress/logs", ctl.GetByUserID)
}
