package middleware

import (
	"github.com/ManuelReschke/PaymentBot/internal/pkg/telegram"
	"github.com/gofiber/fiber/v2"
)

// WebhookSecretMiddleware rejects update deliveries without the configured secret token
func WebhookSecretMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !telegram.VerifyWebhookSecret(c.Get(telegram.SecretHeader), secret) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid webhook secret"})
		}
		return c.Next()
	}
}
