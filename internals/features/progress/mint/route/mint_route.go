package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	mintController "ecoguard_backend/internals/features/progress/mint/controller"
	"ecoguard_backend/internals/features/progress/mint/repository"
)

// MintUserRoutes → /api/u/progress/mints
func MintUserRoutes(router fiber.Router, repo *repository.MintRequestRepository, log *zap.Logger) {
	ctl := mintController.NewMintRequestController(repo, log)
	router.Get("/progress/mints", ctl.ListMine)
}
