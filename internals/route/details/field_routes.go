package details

import (
	"github.com/gofiber/fiber/v2"

	attendanceRoute "ecoguard_backend/internals/features/field/attendance/route"
	contributionRoute "ecoguard_backend/internals/features/field/contributions/route"
	projectRoute "ecoguard_backend/internals/features/field/projects/route"
	rewardRoute "ecoguard_backend/internals/features/field/rewards/route"
)

func FieldUserRoutes(user fiber.Router, d *Deps) {
	attendanceRoute.FieldAttendanceUserRoutes(user, d.Attendance)
	contributionRoute.ContributionUserRoutes(user, d.Contributions)
}

func FieldAdminRoutes(admin fiber.Router, d *Deps) {
	projectRoute.ProjectAdminRoutes(admin, d.Projects, d.Log)
	attendanceRoute.FieldAttendanceAdminRoutes(admin, d.Attendance)
	rewardRoute.ProjectCompletionAdminRoutes(admin, d.Rewards)
}
