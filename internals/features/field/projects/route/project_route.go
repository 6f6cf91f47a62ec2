package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ecoguard_backend/internals/constants"
	projectController "ecoguard_backend/internals/features/field/projects/controller"
	"ecoguard_backend/internals/features/field/projects/repository"
	authMiddleware "ecoguard_backend/internals/middlewares/auth"
)

// ProjectAdminRoutes → /api/a/field/projects
func ProjectAdminRoutes(router fiber.Router, repo *repository.ProjectRepository, log *zap.Logger) {
	ctl := projectController.NewProjectController(repo, log)

	g := router.Group("/field/projects",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("manajemen project"), constants.AdminAndAbove))
	g.Post("/", ctl.Create)
	g.Get("/:project_id", ctl.GetByID)
	g.Patch("/:project_id/progress", ctl.UpdateProgress)
	g.Post("/:project_id/contributors", ctl.AddContributor)
	g.Post("/:project_id/sites", ctl.AddSite)
}
