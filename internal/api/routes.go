package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecamli/bskydigest/internal/middleware"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers, adminAPIKey string) {
	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)

	api.Get("/digest", handlers.GetDigest)
	api.Get("/digest/stream", handlers.StreamDigest)

	admin := api.Group("/admin", middleware.AdminOnly(adminAPIKey))
	admin.Delete("/digest/:type", handlers.PurgeDigest)

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
