package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoguard_backend/internals/constants"
)

const testSecret = "field-secret"

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthJWT(testSecret, zap.NewNop()))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string) + "|" + c.Locals("userRole").(string))
	})
	app.Get("/admin", OnlyRolesSlice(constants.RoleErrorAdmin("admin"), constants.AdminAndAbove), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func call(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer  "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 512)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestAuthJWT_ValidToken(t *testing.T) {
	uid := uuid.New()
	tok := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  uid.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	code, body := call(t, newAuthApp(), "/me", tok)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, uid.String()+"|user", body)
}

func TestAuthJWT_Rejections(t *testing.T) {
	app := newAuthApp()

	code, _ := call(t, app, "/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)

	expired := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	code, _ = call(t, app, "/me", expired)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	wrongAlg := signed(t, jwt.SigningMethodHS512, jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	code, _ = call(t, app, "/me", wrongAlg)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	noID := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	code, _ = call(t, app, "/me", noID)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}

func TestOnlyRolesSlice(t *testing.T) {
	app := newAuthApp()

	user := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(), "role": "user", "exp": time.Now().Add(time.Hour).Unix(),
	})
	code, _ := call(t, app, "/admin", user)
	assert.Equal(t, fiber.StatusForbidden, code)

	admin := signed(t, jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": uuid.NewString(), "role": "NGO_Admin", "exp": time.Now().Add(time.Hour).Unix(),
	})
	code, _ = call(t, app, "/admin", admin)
	assert.Equal(t, fiber.StatusNoContent, code)
}
