package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"ecoguard_backend/internals/metrics"
	routeDetails "ecoguard_backend/internals/route/details"
)

func BaseRoutes(app *fiber.App, d *routeDetails.Deps) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("EcoGuard field API 🌱")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		sqlDB, err := d.DB.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			err = sqlDB.PingContext(ctx)
			cancel()
		}
		if err != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    d.Config.AppEnv,
		})
	})

	// layanan mint (GET /test di sisi mint)
	app.Get("/health/mint", func(c *fiber.Ctx) error {
		if !d.Config.MintEnabled {
			return c.JSON(fiber.Map{"status": "DISABLED"})
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		if err := d.Bridge.Health(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "DOWN", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "OK"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
}
