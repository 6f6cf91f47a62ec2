package details

import (
	"github.com/gofiber/fiber/v2"

	mintRoute "ecoguard_backend/internals/features/progress/mint/route"
	pointRoute "ecoguard_backend/internals/features/progress/points/route"
	progressRoute "ecoguard_backend/internals/features/progress/progress/route"
)

func ProgressUserRoutes(user fiber.Router, d *Deps) {
	// /progress/logs & /progress/mints sebelum group /progress
	pointRoute.UserPointRoutes(user, d.Ledger)
	mintRoute.MintUserRoutes(user, d.Mints, d.Log)
	progressRoute.UserProgressRoutes(user, d.Ledger, d.Log)
}

func ProgressAdminRoutes(admin fiber.Router, d *Deps) {
	progressRoute.AdminProgressRoutes(admin, d.Ledger, d.Log)
}
