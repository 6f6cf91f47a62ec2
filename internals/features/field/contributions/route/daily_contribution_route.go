package route

import (
	"github.com/gofiber/fiber/v2"

	contributionController "ecoguard_backend/internals/features/field/contributions/controller"
	"ecoguard_backend/internals/features/field/contributions/service"
)

// ContributionUserRoutes → /api/u/field/projects/:project_id/contributions
func ContributionUserRoutes(router fiber.Router, svc *service.Service) {
	ctl := contributionController.NewDailyContributionController(svc)

	g := router.Group("/field/projects/:project_id/contributions")
	g.Post("/", ctl.Submit)
	g.Get("/", ctl.ListMine)
}
