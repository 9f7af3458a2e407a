package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/EventFox/app/controllers"
	"github.com/ManuelReschke/EventFox/internal/pkg/constants"
	"github.com/ManuelReschke/EventFox/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	admin := app.Group(constants.AdminAPIRoute, limiter.New(), middleware.RequireAdmin(middleware.AdminCredentialsFromEnv()))
	admin.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "EventFox operator api",
		})
	})

	webhooks := admin.Group("/webhooks")
	webhooks.Get("/metrics", controllers.HandleAdminWebhookMetrics)
	webhooks.Get("/health", controllers.HandleAdminWebhookHealth)
	webhooks.Get("/url", controllers.HandleAdminWebhookURL)
	webhooks.Post("/test", controllers.HandleAdminWebhookTest)
	webhooks.Post("/diagnostics", controllers.HandleAdminWebhookDiagnostics)
	webhooks.Post("/reset", controllers.HandleAdminWebhookReset)
	webhooks.Post("/validate-url", controllers.HandleAdminWebhookValidateURL)
	webhooks.Post("/test-connection", controllers.HandleAdminWebhookTestConnection)
	webhooks.Post("/purge-events", controllers.HandleAdminWebhookPurgeEvents)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
