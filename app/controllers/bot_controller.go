package controllers

import (
	"errors"
	"strconv"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/audit"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/config"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/mail"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/metrics"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/notify"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// EmailerFactory returns the emailer for one request, nil when emails are disabled
type EmailerFactory func() *mail.PaymentEmailer

// BotController serves the operator commands of the admin API
type BotController struct {
	scheduler *audit.Scheduler
	kickers   audit.KickerFactory
	emailers  EmailerFactory
	loader    payment.Loader
	flags     *config.Flags
	sender    chat.MessageSender
	contacts  notify.Contacts
	recorder  *audit.Recorder
	metrics   *metrics.Metrics
}

// BotControllerDeps are the collaborators of the controller
type BotControllerDeps struct {
	Scheduler *audit.Scheduler
	Kickers   audit.KickerFactory
	Emailers  EmailerFactory
	Loader    payment.Loader
	Flags     *config.Flags
	Sender    chat.MessageSender
	Contacts  notify.Contacts
	Recorder  *audit.Recorder
	Metrics   *metrics.Metrics
}

// NewBotController creates a new bot controller
func NewBotController(deps BotControllerDeps) *BotController {
	return &BotController{
		scheduler: deps.Scheduler,
		kickers:   deps.Kickers,
		emailers:  deps.Emailers,
		loader:    deps.Loader,
		flags:     deps.Flags,
		sender:    deps.Sender,
		contacts:  deps.Contacts,
		recorder:  deps.Recorder,
		metrics:   deps.Metrics,
	}
}

type periodRequest struct {
	Period int `json:"period"`
}

type chatRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleAuditStatus returns the state of the payments check job
func (bc *BotController) HandleAuditStatus(c *fiber.Ctx) error {
	response := fiber.Map{
		"running":   bc.scheduler.IsRunning(),
		"period":    bc.scheduler.Period(),
		"test_mode": bc.flags.TestMode(),
		"chats":     bc.scheduler.Chats(),
	}
	if next := bc.scheduler.NextFire(); !next.IsZero() {
		response["next_run"] = next.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return c.JSON(response)
}

// HandleAuditStart starts the payments check job
func (bc *BotController) HandleAuditStart(c *fiber.Ctx) error {
	var req periodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := bc.scheduler.Start(req.Period); err != nil {
		return schedulerError(c, err)
	}
	return c.JSON(fiber.Map{"running": true, "period": req.Period, "next_run": bc.scheduler.NextFire()})
}

// HandleAuditStop stops the payments check job
func (bc *BotController) HandleAuditStop(c *fiber.Ctx) error {
	if err := bc.scheduler.Stop(); err != nil {
		return schedulerError(c, err)
	}
	return c.JSON(fiber.Map{"running": false})
}

// HandleAuditAddChat registers a chat for the payments check
func (bc *BotController) HandleAuditAddChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Chat id is required"})
	}
	if err := bc.scheduler.AddChat(chat.Chat{ID: req.ID, Title: req.Title}); err != nil {
		return schedulerError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"chats": bc.scheduler.Chats()})
}

// HandleAuditRemoveChat unregisters a chat
func (bc *BotController) HandleAuditRemoveChat(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	if err := bc.scheduler.RemoveChat(ch); err != nil {
		return schedulerError(c, err)
	}
	return c.JSON(fiber.Map{"chats": bc.scheduler.Chats()})
}

// HandleAuditRemoveAllChats unregisters every chat
func (bc *BotController) HandleAuditRemoveAllChats(c *fiber.Ctx) error {
	bc.scheduler.RemoveAllChats()
	return c.JSON(fiber.Map{"chats": []chat.Chat{}})
}

// HandleAuditRun runs a payments check pass now
func (bc *BotController) HandleAuditRun(c *fiber.Ctx) error {
	report := bc.scheduler.RunNow(c.UserContext())
	return c.JSON(report)
}

// HandleExpiredPayments lists the members of a chat whose payment expired
func (bc *BotController) HandleExpiredPayments(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	members, err := bc.kickers().Evaluator().GetAllWithExpiredPayment(c.UserContext(), ch)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"chat": ch, "count": len(members), "members": members})
}

// HandleKickExpiredPayments removes the members of a chat whose payment expired
func (bc *BotController) HandleKickExpiredPayments(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	kicker := bc.kickers()
	kicked, err := kicker.KickAllWithExpiredPayment(c.UserContext(), ch)
	return bc.kickResult(c, kicker, models.KICK_REASON_EXPIRED_PAYMENT, ch, kicked, err)
}

// HandleExpiringPayments lists the members of a chat whose payment expires within days
func (bc *BotController) HandleExpiringPayments(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	days, ok := queryNonNegative(c, "days", 0)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "days must be a non negative number"})
	}
	members, err := bc.kickers().Evaluator().GetAllWithExpiringPayment(c.UserContext(), ch, days)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"chat": ch, "days": days, "count": len(members), "members": members})
}

// HandleExpiringPaymentsNotice posts a renewal reminder for expiring members into the chat
func (bc *BotController) HandleExpiringPaymentsNotice(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	days, okDays := queryNonNegative(c, "days", 0)
	lastDay, okLast := queryNonNegative(c, "last_day", 0)
	if !okDays || !okLast {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "days and last_day must be non negative numbers"})
	}
	members, err := bc.kickers().Evaluator().GetAllWithExpiringPayment(c.UserContext(), ch, days)
	if err != nil {
		return paymentError(c, err)
	}
	return bc.postNotice(c, ch, notify.ExpiringPaymentNotice(ch, members, days, lastDay, bc.contacts))
}

// HandleMissingUsernames lists the members of a chat with no username
func (bc *BotController) HandleMissingUsernames(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	members, err := bc.kickers().Evaluator().GetAllWithNoUsername(c.UserContext(), ch)
	if err != nil {
		return paymentError(c, err)
	}
	return c.JSON(fiber.Map{"chat": ch, "count": len(members), "members": members})
}

// HandleKickMissingUsernames removes the members of a chat with no username
func (bc *BotController) HandleKickMissingUsernames(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	kicker := bc.kickers()
	kicked, err := kicker.KickAllWithNoUsername(c.UserContext(), ch)
	return bc.kickResult(c, kicker, models.KICK_REASON_NO_USERNAME, ch, kicked, err)
}

// HandleMissingUsernamesNotice asks the members with no username to set one
func (bc *BotController) HandleMissingUsernamesNotice(c *fiber.Ctx) error {
	ch, ok := bc.chatFromParams(c)
	if !ok {
		return invalidChatID(c)
	}
	hours, ok := queryNonNegative(c, "hours", 0)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "hours must be a non negative number"})
	}
	members, err := bc.kickers().Evaluator().GetAllWithNoUsername(c.UserContext(), ch)
	if err != nil {
		return paymentError(c, err)
	}
	return bc.postNotice(c, ch, notify.NoUsernameNotice(ch, members, hours, bc.contacts))
}

// HandlePaymentErrors reports the malformed and duplicated payment rows
func (bc *BotController) HandlePaymentErrors(c *fiber.Ctx) error {
	errs, err := bc.loader.CheckForErrors(c.UserContext())
	if err != nil {
		return paymentError(c, err)
	}
	if errs == nil {
		errs = []payment.ComplianceError{}
	}
	return c.JSON(fiber.Map{"count": len(errs), "errors": errs})
}

// HandleEmailExpiredPayments emails every payer whose payment expired
func (bc *BotController) HandleEmailExpiredPayments(c *fiber.Ctx) error {
	emailer := bc.emailer()
	if emailer == nil {
		return emailsDisabled(c)
	}
	payments, err := emailer.EmailAllWithExpiredPayment(c.UserContext())
	return emailResult(c, payments, err, bc.flags.TestMode())
}

// HandleEmailExpiringPayments emails every payer whose payment expires within days
func (bc *BotController) HandleEmailExpiringPayments(c *fiber.Ctx) error {
	emailer := bc.emailer()
	if emailer == nil {
		return emailsDisabled(c)
	}
	days, ok := queryNonNegative(c, "days", 0)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "days must be a non negative number"})
	}
	payments, err := emailer.EmailAllWithExpiringPayment(c.UserContext(), days)
	return emailResult(c, payments, err, bc.flags.TestMode())
}

// HandleGetTestMode returns the test mode flag
func (bc *BotController) HandleGetTestMode(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"enabled": bc.flags.TestMode()})
}

// HandleSetTestMode switches the test mode flag
func (bc *BotController) HandleSetTestMode(c *fiber.Ctx) error {
	enabled, ok := parseToggle(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "enabled is required"})
	}
	bc.flags.SetTestMode(enabled)
	log.Infof("[Settings] Test mode set to %t", enabled)
	return c.JSON(fiber.Map{"enabled": enabled})
}

// HandleGetCheckOnJoin returns the join check flag
func (bc *BotController) HandleGetCheckOnJoin(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"enabled": bc.flags.CheckOnJoin()})
}

// HandleSetCheckOnJoin switches the join check flag
func (bc *BotController) HandleSetCheckOnJoin(c *fiber.Ctx) error {
	enabled, ok := parseToggle(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "enabled is required"})
	}
	bc.flags.SetCheckOnJoin(enabled)
	log.Infof("[Settings] Payment check on join set to %t", enabled)
	return c.JSON(fiber.Map{"enabled": enabled})
}

func (bc *BotController) emailer() *mail.PaymentEmailer {
	if bc.emailers == nil {
		return nil
	}
	return bc.emailers()
}

// kickResult records the members kicked so far, also when a later ban failed
func (bc *BotController) kickResult(c *fiber.Ctx, kicker *member.Kicker, reason string, ch chat.Chat, kicked chat.MemberList, err error) error {
	bc.recordKicks(c, kicker, reason, ch, kicked)
	if err != nil {
		var loaderErr *payment.LoaderError
		if errors.As(err, &loaderErr) {
			return paymentError(c, err)
		}
		log.Errorf("[Kicker] %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "kick_failed",
			"message": err.Error(),
			"chat":    ch,
			"count":   len(kicked),
			"kicked":  kicked,
		})
	}
	return c.JSON(fiber.Map{"chat": ch, "dry_run": kicker.DryRun(), "count": len(kicked), "kicked": kicked})
}

func (bc *BotController) recordKicks(c *fiber.Ctx, kicker *member.Kicker, reason string, ch chat.Chat, kicked chat.MemberList) {
	if len(kicked) == 0 {
		return
	}
	bc.recorder.Record(c.UserContext(), audit.NewRunID(), models.KICK_SOURCE_COMMAND, reason, ch, kicked.Users(), kicker.DryRun())
	bc.metrics.AddKicked(reason, kicker.DryRun(), len(kicked))
}

func (bc *BotController) postNotice(c *fiber.Ctx, ch chat.Chat, text string) error {
	if bc.sender == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Messaging not available"})
	}
	if err := bc.sender.SendMessage(c.UserContext(), ch.ID, text); err != nil {
		log.Errorf("[Notify] Unable to post notice to chat %s: %v", ch.TitleOrID(), err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Unable to send message"})
	}
	return c.JSON(fiber.Map{"chat": ch, "message": text})
}

// chatFromParams resolves :id, using the title of the registered chat when known
func (bc *BotController) chatFromParams(c *fiber.Ctx) (chat.Chat, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return chat.Chat{}, false
	}
	for _, registered := range bc.scheduler.Chats() {
		if registered.ID == id {
			return registered, true
		}
	}
	return chat.Chat{ID: id}, true
}

func schedulerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, audit.ErrInvalidPeriod):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	case errors.Is(err, audit.ErrJobAlreadyRunning),
		errors.Is(err, audit.ErrJobNotRunning),
		errors.Is(err, audit.ErrChatAlreadyPresent),
		errors.Is(err, audit.ErrChatNotPresent):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
}

func paymentError(c *fiber.Ctx, err error) error {
	var loaderErr *payment.LoaderError
	if errors.As(err, &loaderErr) {
		log.Errorf("[PaymentLedger] %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payments_unavailable", "message": "Payments could not be loaded"})
	}
	log.Errorf("[Controller] %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
}

func emailsDisabled(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Payment emails are disabled"})
}

func emailResult(c *fiber.Ctx, payments *payment.Ledger, err error, dryRun bool) error {
	if err != nil {
		var loaderErr *payment.LoaderError
		if errors.As(err, &loaderErr) {
			return paymentError(c, err)
		}
		log.Errorf("[Emailer] %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "email_failed", "message": err.Error()})
	}
	records := payments.Records()
	return c.JSON(fiber.Map{"dry_run": dryRun, "count": len(records), "payments": records})
}
