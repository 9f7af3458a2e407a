package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/app/controllers"
	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	requireAdmin := middleware.RequireAdmin(middleware.AdminCredentialsFromEnv())

	// Prometheus scrape endpoint for webhook counters
	app.Get(constants.WebhookMetricsRoute, requireAdmin, controllers.HandleWebhookPrometheus)
}
