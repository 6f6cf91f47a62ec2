package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "ecoguard_backend/internals/helpers"
)

// OnlyRolesSlice memungkinkan akses jika user memiliki salah satu dari role yang diizinkan.
func OnlyRolesSlice(message string, allowedRoles []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(string)
		if !ok {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Role not found")
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}
		return helper.JsonError(c, fiber.StatusForbidden, message)
	}
}

// Shortcut biar lebih clean pemakaian
func OnlyRoles(message string, roles ...string) fiber.Handler {
	return OnlyRolesSlice(message, roles)
}
