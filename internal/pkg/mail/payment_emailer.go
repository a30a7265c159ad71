package mail

import (
	"context"
	"strings"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/metrics"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/gofiber/fiber/v2/log"
)

// SendEmailPause is the pause between two reminder emails
const SendEmailPause = 50 * time.Millisecond

// Sender delivers a single email
type Sender interface {
	SendMail(to, subject, body string) error
}

// PaymentSource provides the payments to remind
type PaymentSource interface {
	ExpiredPayments(ctx context.Context) (*payment.Ledger, error)
	ExpiringPayments(ctx context.Context, days int) (*payment.Ledger, error)
}

// Template is the reminder email content
type Template struct {
	Subject string
	Body    string
}

// PaymentEmailer reminds payers whose subscription expired or is about to
type PaymentEmailer struct {
	source   PaymentSource
	sender   Sender
	template Template
	dryRun   bool
	pause    time.Duration
	metrics  *metrics.Metrics
}

// NewPaymentEmailer creates an emailer. In dry run no email is sent.
func NewPaymentEmailer(source PaymentSource, sender Sender, template Template, dryRun bool, m *metrics.Metrics) *PaymentEmailer {
	return &PaymentEmailer{
		source:   source,
		sender:   sender,
		template: template,
		dryRun:   dryRun,
		pause:    SendEmailPause,
		metrics:  m,
	}
}

// EmailAllWithExpiredPayment emails every expired payer and returns the expired payments
func (e *PaymentEmailer) EmailAllWithExpiredPayment(ctx context.Context) (*payment.Ledger, error) {
	expired, err := e.source.ExpiredPayments(ctx)
	if err != nil {
		return nil, err
	}
	return expired, e.send(ctx, expired)
}

// EmailAllWithExpiringPayment emails every payer expiring within days and returns those payments
func (e *PaymentEmailer) EmailAllWithExpiringPayment(ctx context.Context, days int) (*payment.Ledger, error) {
	expiring, err := e.source.ExpiringPayments(ctx, days)
	if err != nil {
		return nil, err
	}
	return expiring, e.send(ctx, expiring)
}

func (e *PaymentEmailer) send(ctx context.Context, payments *payment.Ledger) error {
	if e.dryRun {
		log.Info("[Emailer] Test mode ON: no email was sent")
		return nil
	}
	if payments.Empty() {
		return nil
	}

	sent := make(map[string]struct{})
	defer func() { e.metrics.AddEmailsSent(len(sent)) }()

	for _, p := range payments.Records() {
		if p.Email == "" {
			log.Warnf("[Emailer] No email set for user %s, skipped", p.Identity)
			continue
		}
		key := strings.ToLower(p.Email)
		if _, ok := sent[key]; ok {
			log.Warnf("[Emailer] Email %s is present more than one time, skipped", p.Email)
			continue
		}

		if len(sent) > 0 && e.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.pause):
			}
		}
		if err := e.sender.SendMail(p.Email, e.template.Subject, e.template.Body); err != nil {
			return err
		}
		sent[key] = struct{}{}
		log.Infof("[Emailer] Email successfully sent to: %s (%s)", p.Email, p.Identity)
	}
	return nil
}
