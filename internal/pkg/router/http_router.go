package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventFox/app/controllers"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Initialize webhook pipeline (settings, monitor, provider client)
	controllers.InitializeWebhookControllers()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
