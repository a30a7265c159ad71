package router

import (
	"time"

	"github.com/ManuelReschke/PaymentBot/app/controllers"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ApiRouter serves the operator command API
type ApiRouter struct {
	bot        *controllers.BotController
	records    *controllers.RecordsController
	apiKeyHash string
	storage    fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Storage:    h.storage,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware(h.apiKeyHash))

	// payments check job
	v1.Get("/audit", h.bot.HandleAuditStatus)
	v1.Post("/audit/start", h.bot.HandleAuditStart)
	v1.Post("/audit/stop", h.bot.HandleAuditStop)
	v1.Post("/audit/run", h.bot.HandleAuditRun)
	v1.Post("/audit/chats", h.bot.HandleAuditAddChat)
	v1.Delete("/audit/chats", h.bot.HandleAuditRemoveAllChats)
	v1.Delete("/audit/chats/:id", h.bot.HandleAuditRemoveChat)

	// chat members
	v1.Get("/chats/:id/payments/expired", h.bot.HandleExpiredPayments)
	v1.Post("/chats/:id/payments/expired/kick", h.bot.HandleKickExpiredPayments)
	v1.Get("/chats/:id/payments/expiring", h.bot.HandleExpiringPayments)
	v1.Post("/chats/:id/payments/expiring/notice", h.bot.HandleExpiringPaymentsNotice)
	v1.Get("/chats/:id/usernames/missing", h.bot.HandleMissingUsernames)
	v1.Post("/chats/:id/usernames/missing/kick", h.bot.HandleKickMissingUsernames)
	v1.Post("/chats/:id/usernames/missing/notice", h.bot.HandleMissingUsernamesNotice)

	// payments
	v1.Get("/payments/errors", h.bot.HandlePaymentErrors)
	v1.Post("/payments/email/expired", h.bot.HandleEmailExpiredPayments)
	v1.Post("/payments/email/expiring", h.bot.HandleEmailExpiringPayments)

	// database payment rows
	v1.Get("/payment-rows", h.records.HandleListPayments)
	v1.Put("/payment-rows", h.records.HandleSavePayment)
	v1.Get("/payment-rows/:identity", h.records.HandleGetPayment)
	v1.Delete("/payment-rows/:id", h.records.HandleDeletePayment)

	// audit trail
	v1.Get("/kicks", h.records.HandleListKicks)
	v1.Delete("/kicks", h.records.HandlePruneKicks)
	v1.Get("/kicks/runs/:run_id", h.records.HandleListRunKicks)

	// settings
	v1.Get("/settings/test-mode", h.bot.HandleGetTestMode)
	v1.Put("/settings/test-mode", h.bot.HandleSetTestMode)
	v1.Get("/settings/check-on-join", h.bot.HandleGetCheckOnJoin)
	v1.Put("/settings/check-on-join", h.bot.HandleSetCheckOnJoin)
}

// NewApiRouter creates the API router. A nil storage keeps limiter state in memory.
func NewApiRouter(bot *controllers.BotController, records *controllers.RecordsController, apiKeyHash string, storage fiber.Storage) *ApiRouter {
	return &ApiRouter{
		bot:        bot,
		records:    records,
		apiKeyHash: apiKeyHash,
		storage:    storage,
	}
}
