package constants

import "fmt"

const (
	RoleUser     = "user"
	RoleNGOAdmin = "ngo_admin"
	RoleAdmin    = "admin"
)

// Template pesan error role
const (
	ErrOnlyAdminsCanAccess = "❌ Hanya admin NGO atau admin yang boleh mengakses fitur %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleUser,
		RoleNGOAdmin,
		RoleAdmin,
	}

	AdminAndAbove = []string{
		RoleNGOAdmin,
		RoleAdmin,
	}
)
