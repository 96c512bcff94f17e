package router

import (
	"github.com/gmackie/clerk-stripe-starter-sub001/app/controllers"

	"github.com/gofiber/fiber/v2"
)

// WebhookRouter exposes the inbound provider webhook endpoints.
type WebhookRouter struct {
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	hooks := app.Group("/webhooks")
	hooks.Post("/clerk", controllers.HandleClerkWebhook)
	hooks.Post("/stripe", controllers.HandleStripeWebhook)
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}
