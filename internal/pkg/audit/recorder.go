package audit

import (
	"context"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// KickRecordStore persists kick records
type KickRecordStore interface {
	CreateBatch(ctx context.Context, records []models.KickRecord) error
}

// Recorder writes the enforcement audit trail. A nil *Recorder discards everything.
type Recorder struct {
	store KickRecordStore
}

// NewRecorder creates a recorder over store
func NewRecorder(store KickRecordStore) *Recorder {
	return &Recorder{store: store}
}

// NewRunID returns a fresh id grouping the records of one operation
func NewRunID() string {
	return uuid.New().String()
}

// Record stores one record per user. Failures are logged and never returned,
// the trail must not get in the way of enforcement.
func (r *Recorder) Record(ctx context.Context, runID, source, reason string, c chat.Chat, users []chat.User, dryRun bool) {
	if r == nil || r.store == nil || len(users) == 0 {
		return
	}

	records := make([]models.KickRecord, 0, len(users))
	for _, u := range users {
		records = append(records, models.KickRecord{
			RunID:     runID,
			Source:    source,
			ChatID:    c.ID,
			ChatTitle: c.Title,
			UserID:    u.ID,
			Username:  u.Username,
			Reason:    reason,
			DryRun:    dryRun,
		})
	}
	if err := r.store.CreateBatch(ctx, records); err != nil {
		log.Errorf("[AuditJob] Unable to store %d kick records for chat %s: %v", len(records), c.TitleOrID(), err)
	}
}
