package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/metrics"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/gofiber/fiber/v2/log"
)

// KickerFactory returns the kicker used for one audit pass. A new kicker per pass
// means a freshly loaded ledger per pass.
type KickerFactory func() *member.Kicker

// ChatResult is the outcome of auditing one chat
type ChatResult struct {
	Chat   chat.Chat       `json:"chat"`
	Kicked chat.MemberList `json:"kicked"`
	Error  string          `json:"error,omitempty"`
}

// Report summarizes one audit pass
type Report struct {
	RunID   string       `json:"run_id"`
	DryRun  bool         `json:"dry_run"`
	Results []ChatResult `json:"results"`
	Aborted bool         `json:"aborted"`
}

// Job runs audit passes over the registered chats
type Job struct {
	mu    sync.Mutex
	chats map[int64]chat.Chat

	period    atomic.Int64
	newKicker KickerFactory
	notifier  chat.NotificationSink
	recorder  *Recorder
	metrics   *metrics.Metrics
}

// NewJob creates a job with no registered chat
func NewJob(newKicker KickerFactory, notifier chat.NotificationSink, recorder *Recorder, m *metrics.Metrics) *Job {
	return &Job{
		chats:     make(map[int64]chat.Chat),
		newKicker: newKicker,
		notifier:  notifier,
		recorder:  recorder,
		metrics:   m,
	}
}

// Period returns the period the job was last started with
func (j *Job) Period() int {
	return int(j.period.Load())
}

// SetPeriod stores the period
func (j *Job) SetPeriod(period int) {
	j.period.Store(int64(period))
}

// AddChat registers c, false when it already was
func (j *Job) AddChat(c chat.Chat) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.chats[c.ID]; ok {
		return false
	}
	j.chats[c.ID] = c
	return true
}

// RemoveChat unregisters c, false when it was not registered
func (j *Job) RemoveChat(c chat.Chat) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.chats[c.ID]; !ok {
		return false
	}
	delete(j.chats, c.ID)
	return true
}

// RemoveAllChats clears the registry
func (j *Job) RemoveAllChats() {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.chats = make(map[int64]chat.Chat)
}

// Chats returns the registered chats ordered by id
func (j *Job) Chats() []chat.Chat {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.sortedChats()
}

func (j *Job) sortedChats() []chat.Chat {
	chats := make([]chat.Chat, 0, len(j.chats))
	for _, c := range j.chats {
		chats = append(chats, c)
	}
	sort.Slice(chats, func(a, b int) bool { return chats[a].ID < chats[b].ID })
	return chats
}

// RunOnce audits every registered chat. The registry stays locked for the whole pass.
// A failing chat is logged and skipped; a ledger that cannot be loaded ends the pass
// without kicking anybody.
func (j *Job) RunOnce(ctx context.Context) Report {
	log.Info("[AuditJob] Payments check job started")
	start := time.Now()
	report := Report{RunID: NewRunID()}

	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.chats) == 0 {
		log.Info("[AuditJob] No chat to check, exiting...")
		return report
	}
	defer j.metrics.ObserveAudit(start)

	kicker := j.newKicker()
	report.DryRun = kicker.DryRun()

	for _, c := range j.sortedChats() {
		kicked, err := j.auditChat(ctx, report.RunID, kicker, c)
		result := ChatResult{Chat: c, Kicked: kicked}
		if err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)

			var loaderErr *payment.LoaderError
			if errors.As(err, &loaderErr) {
				j.metrics.IncrementLedgerLoadError()
				log.Errorf("[AuditJob] Payments could not be loaded, nobody is considered expired in this pass: %v", err)
				report.Aborted = true
				return report
			}
			j.metrics.IncrementChatFailure()
			log.Errorf("[AuditJob] Error while checking chat %s: %v", c.TitleOrID(), err)
			continue
		}
		report.Results = append(report.Results, result)
	}

	log.Infof("[AuditJob] Payments check job completed for %d chat(s) in %s", len(report.Results), time.Since(start))
	return report
}

func (j *Job) auditChat(ctx context.Context, runID string, kicker *member.Kicker, c chat.Chat) (chat.MemberList, error) {
	log.Infof("[AuditJob] Checking payments for chat %s...", c.TitleOrID())

	// members banned before a failing ban are still recorded and reported
	kicked, err := kicker.KickAllWithExpiredPayment(ctx, c)

	log.Infof("[AuditJob] Kicked members for chat %s: %d", c.TitleOrID(), len(kicked))
	if len(kicked) == 0 {
		return kicked, err
	}
	log.Info("[AuditJob] " + kicked.String())

	j.recorder.Record(ctx, runID, models.KICK_SOURCE_AUDIT, models.KICK_REASON_EXPIRED_PAYMENT, c, kicked.Users(), kicker.DryRun())
	j.metrics.AddKicked(models.KICK_REASON_EXPIRED_PAYMENT, kicker.DryRun(), len(kicked))

	if j.notifier != nil {
		j.notifier.Broadcast(ctx, c, RemovalNotice(c, kicked, kicker.DryRun()))
	}
	return kicked, err
}

// RemovalNotice is the message sent to authorized users after members were removed for missing payment
func RemovalNotice(c chat.Chat, kicked chat.MemberList, dryRun bool) string {
	title := c.Title
	if title == "" {
		title = fmt.Sprintf("%d", c.ID)
	}
	msg := fmt.Sprintf("Payments check for chat %s\n\nRemoved members: %d\n%s", title, len(kicked), kicked.String())
	if dryRun {
		msg += "\n\nTest mode ON: no member was actually removed"
	}
	return msg
}
