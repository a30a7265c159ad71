package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// KickRecordReader reads and prunes the enforcement audit trail
type KickRecordReader interface {
	ListByRun(ctx context.Context, runID string) ([]models.KickRecord, error)
	ListByChat(ctx context.Context, chatID int64, limit int) ([]models.KickRecord, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// PaymentStore manages the rows of the database payment source
type PaymentStore interface {
	List(ctx context.Context) ([]models.Payment, error)
	GetByIdentity(ctx context.Context, identity string) (*models.Payment, error)
	Upsert(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uint) error
}

// LedgerInvalidator drops a cached payment ledger
type LedgerInvalidator interface {
	Invalidate(ctx context.Context) error
}

const defaultKickRecordLimit = 100

// RecordsController serves the audit trail and the database payment rows
type RecordsController struct {
	kicks       KickRecordReader
	payments    PaymentStore
	invalidator LedgerInvalidator
	dbSource    bool
	now         func() time.Time
}

// NewRecordsController creates a new records controller. dbSource tells whether the
// payment rows are the active payment source; invalidator may be nil.
func NewRecordsController(kicks KickRecordReader, payments PaymentStore, invalidator LedgerInvalidator, dbSource bool) *RecordsController {
	return &RecordsController{
		kicks:       kicks,
		payments:    payments,
		invalidator: invalidator,
		dbSource:    dbSource,
		now:         time.Now,
	}
}

type paymentRequest struct {
	ID        uint   `json:"id"`
	Identity  string `json:"identity"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

// HandleListKicks lists the latest kick records of a chat
func (rc *RecordsController) HandleListKicks(c *fiber.Ctx) error {
	chatID, err := strconv.ParseInt(c.Query("chat_id"), 10, 64)
	if err != nil || chatID == 0 {
		return invalidChatID(c)
	}
	limit, ok := queryNonNegative(c, "limit", defaultKickRecordLimit)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "limit must be a non negative number"})
	}
	records, err := rc.kicks.ListByChat(c.UserContext(), chatID, limit)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"count": len(records), "records": records})
}

// HandleListRunKicks lists the kick records of one audit pass or command
func (rc *RecordsController) HandleListRunKicks(c *fiber.Ctx) error {
	runID := strings.TrimSpace(c.Params("run_id"))
	if runID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Run id is required"})
	}
	records, err := rc.kicks.ListByRun(c.UserContext(), runID)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"run_id": runID, "count": len(records), "records": records})
}

// HandlePruneKicks deletes the kick records older than older_than_days
func (rc *RecordsController) HandlePruneKicks(c *fiber.Ctx) error {
	days, ok := queryNonNegative(c, "older_than_days", 0)
	if !ok || days < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "older_than_days must be at least 1"})
	}
	before := rc.now().AddDate(0, 0, -days)
	deleted, err := rc.kicks.DeleteOlderThan(c.UserContext(), before)
	if err != nil {
		return storeError(c, err)
	}
	log.Infof("[AuditTrail] Deleted %d kick records older than %d days", deleted, days)
	return c.JSON(fiber.Map{"deleted": deleted})
}

// HandleListPayments lists the stored payment rows
func (rc *RecordsController) HandleListPayments(c *fiber.Ctx) error {
	payments, err := rc.payments.List(c.UserContext())
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{"active_source": rc.dbSource, "count": len(payments), "payments": payments})
}

// HandleGetPayment returns the first stored payment of an identity
func (rc *RecordsController) HandleGetPayment(c *fiber.Ctx) error {
	p, err := rc.payments.GetByIdentity(c.UserContext(), strings.TrimPrefix(c.Params("identity"), "@"))
	if err != nil {
		return storeError(c, err)
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Payment not found"})
	}
	return c.JSON(p)
}

// HandleSavePayment creates a payment row, or updates it when id is set
func (rc *RecordsController) HandleSavePayment(c *fiber.Ctx) error {
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	expiresAt, err := time.Parse("2006-01-02", strings.TrimSpace(req.ExpiresAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "expires_at must be a YYYY-MM-DD date"})
	}

	p := &models.Payment{
		ID:        req.ID,
		Identity:  strings.TrimPrefix(strings.TrimSpace(req.Identity), "@"),
		Email:     strings.TrimSpace(req.Email),
		ExpiresAt: expiresAt,
	}
	if err := rc.payments.Upsert(c.UserContext(), p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
		}
		return storeError(c, err)
	}
	rc.invalidate(c.UserContext())
	return c.JSON(p)
}

// HandleDeletePayment removes a payment row
func (rc *RecordsController) HandleDeletePayment(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid payment id"})
	}
	if err := rc.payments.Delete(c.UserContext(), uint(id)); err != nil {
		return storeError(c, err)
	}
	rc.invalidate(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

func (rc *RecordsController) invalidate(ctx context.Context) {
	if !rc.dbSource || rc.invalidator == nil {
		return
	}
	if err := rc.invalidator.Invalidate(ctx); err != nil {
		log.Warnf("[PaymentLedger] Unable to invalidate cached ledger: %v", err)
	}
}

func storeError(c *fiber.Ctx, err error) error {
	log.Errorf("[Controller] %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Database error"})
}
