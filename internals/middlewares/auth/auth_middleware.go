// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	helper "ecoguard_backend/internals/helpers"
)

// Path publik yang di-skip auth
var skipPaths = map[string]struct{}{
	"/api/health": {},
}

// AuthJWT memverifikasi bearer token HS256 lalu menyimpan user_id & userRole ke Locals.
func AuthJWT(secret string, log *zap.Logger) fiber.Handler {
	log = log.Named("auth")
	return func(c *fiber.Ctx) error {
		// 1) Skip path tertentu
		if _, ok := skipPaths[c.Path()]; ok {
			return c.Next()
		}

		// 2) Ambil Authorization (atau cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
		}

		// 3) Parse & verifikasi JWT
		if secret == "" {
			log.Error("[AUTH] JWT_SECRET kosong")
			return helper.JsonError(c, fiber.StatusInternalServerError, "Missing JWT Secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{
			SkipClaimsValidation: true,
			ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}); err != nil {
			log.Debug("[AUTH] gagal parse token", zap.Error(err))
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token parse error")
		}

		// 4) Validasi exp
		if err := validateTokenExpiry(claims, 30*time.Second); err != nil {
			log.Debug("[AUTH] exp validation", zap.Error(err))
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Token expired")
		}

		// 5) Ambil user_id
		userID, err := extractUserID(claims)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized - Invalid or missing user ID")
		}
		c.Locals("user_id", userID.String())

		// 6) Simpan klaim dasar (role, user_name)
		storeBasicClaimsToLocals(c, claims)
		return c.Next()
	}
}
