package router

import (
	"github.com/ManuelReschke/PaymentBot/app/controllers"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
)

// WebhookRouter receives the chat platform updates
type WebhookRouter struct {
	webhook *controllers.WebhookController
	secret  string
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post("/telegram/webhook", middleware.WebhookSecretMiddleware(h.secret), h.webhook.HandleUpdate)
}

func NewWebhookRouter(webhook *controllers.WebhookController, secret string) *WebhookRouter {
	return &WebhookRouter{webhook: webhook, secret: secret}
}
