package route

import (
	"github.com/gofiber/fiber/v2"

	"ecoguard_backend/internals/constants"
	attController "ecoguard_backend/internals/features/field/attendance/controller"
	attService "ecoguard_backend/internals/features/field/attendance/service"
	"ecoguard_backend/internals/middlewares"
	authMiddleware "ecoguard_backend/internals/middlewares/auth"
)

// FieldAttendanceUserRoutes → /api/u/field/projects/:project_id/attendance
func FieldAttendanceUserRoutes(router fiber.Router, svc *attService.Service) {
	ctl := attController.NewFieldAttendanceController(svc)

	g := router.Group("/field/projects/:project_id/attendance")
	g.Get("/", ctl.ListMine)
	g.Post("/verify-location", ctl.VerifyLocation)

	// endpoint yang memanggil oracle foto dibatasi per user
	limited := middlewares.AttendanceRateLimiter()
	g.Post("/verify-photo", limited, ctl.VerifyPhoto)
	g.Post("/check-in", limited, ctl.CheckIn)
	g.Post("/:attendance_id/check-out", limited, ctl.CheckOut)
}

// FieldAttendanceAdminRoutes → /api/a/field/projects/:project_id/attendance
func FieldAttendanceAdminRoutes(router fiber.Router, svc *attService.Service) {
	ctl := attController.NewFieldAttendanceController(svc)

	g := router.Group("/field/projects/:project_id/attendance",
		authMiddleware.OnlyRolesSlice(constants.RoleErrorAdmin("absensi lapangan"), constants.AdminAndAbove))
	g.Get("/", ctl.ListAll)
	g.Post("/absent", ctl.MarkAbsent)
}
