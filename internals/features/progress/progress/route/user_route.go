package routes

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	progressController "ecoguard_backend/internals/features/progress/progress/controller"
	"ecoguard_backend/internals/features/progress/progress/service"
)

// UserProgressRoutes → /api/u/progress
func UserProgressRoutes(router fiber.Router, svc *service.Service, log *zap.Logger) {
	ctl := progressController.NewUserProgressController(svc, log)
	g := router.Group("/progress")

	g.Get("/", ctl.GetMine)
	g.Put("/wallet", ctl.SetWallet)
	g.Delete("/wallet", ctl.ClearWallet)
	g.Get("/wallet/balance", ctl.WalletBalance)
}
