// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	authMiddleware "ecoguard_backend/internals/middlewares/auth"
	routeDetails "ecoguard_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, d *routeDetails.Deps) {
	startTime = time.Now()

	d.Log.Info("[ROUTE] Setting up base routes...")
	BaseRoutes(app, d)

	// foto absensi yang sudah terverifikasi
	app.Static(d.Config.PhotoPublicPrefix, d.Config.PhotoDir, fiber.Static{MaxAge: 3600})

	// ===================== PRIVATE (USER) =====================
	d.Log.Info("[ROUTE] Setting up PRIVATE group...")
	user := app.Group("/api/u", authMiddleware.AuthJWT(d.Config.JWTSecret, d.Log))

	// ===================== ADMIN =====================
	d.Log.Info("[ROUTE] Setting up ADMIN group...")
	admin := app.Group("/api/a", authMiddleware.AuthJWT(d.Config.JWTSecret, d.Log))

	// ===================== MOUNT ROUTES =====================
	d.Log.Info("[ROUTE] Mounting Field routes...")
	routeDetails.FieldUserRoutes(user, d)
	routeDetails.FieldAdminRoutes(admin, d)

	d.Log.Info("[ROUTE] Mounting Progress routes...")
	routeDetails.ProgressUserRoutes(user, d)
	routeDetails.ProgressAdminRoutes(admin, d)

	d.Log.Info("[ROUTE] routes ready", zap.Int("handlers", int(app.HandlersCount())))
}
