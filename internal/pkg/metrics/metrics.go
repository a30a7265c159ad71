package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks audit passes and enforcement decisions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	AuditPasses       prometheus.Counter
	AuditChatFailures prometheus.Counter
	AuditDuration     prometheus.Histogram
	MembersKicked     *prometheus.CounterVec
	LedgerLoadErrors  prometheus.Counter
	EmailsSent        prometheus.Counter
}

// New creates the metrics and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuditPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "paymentbot_audit_passes_total",
			Help: "Total number of audit passes run",
		}),
		AuditChatFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "paymentbot_audit_chat_failures_total",
			Help: "Total number of chats whose audit failed",
		}),
		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "paymentbot_audit_duration_seconds",
			Help:    "Duration of a full audit pass",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		MembersKicked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paymentbot_members_kicked_total",
			Help: "Total number of members selected for removal",
		}, []string{"reason", "dry_run"}),
		LedgerLoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "paymentbot_ledger_load_errors_total",
			Help: "Total number of failed payment ledger loads",
		}),
		EmailsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "paymentbot_emails_sent_total",
			Help: "Total number of payment reminder emails sent",
		}),
	}
}

// ObserveAudit records a finished audit pass.
// Call with time.Now() at the start of the pass.
func (m *Metrics) ObserveAudit(start time.Time) {
	if m == nil {
		return
	}
	m.AuditPasses.Inc()
	m.AuditDuration.Observe(time.Since(start).Seconds())
}

// IncrementChatFailure records a chat whose audit failed
func (m *Metrics) IncrementChatFailure() {
	if m == nil {
		return
	}
	m.AuditChatFailures.Inc()
}

// AddKicked records n members selected for removal
func (m *Metrics) AddKicked(reason string, dryRun bool, n int) {
	if m == nil || n == 0 {
		return
	}
	label := "false"
	if dryRun {
		label = "true"
	}
	m.MembersKicked.WithLabelValues(reason, label).Add(float64(n))
}

// IncrementLedgerLoadError records a failed ledger load
func (m *Metrics) IncrementLedgerLoadError() {
	if m == nil {
		return
	}
	m.LedgerLoadErrors.Inc()
}

// AddEmailsSent records n sent reminder emails
func (m *Metrics) AddEmailsSent(n int) {
	if m == nil || n == 0 {
		return
	}
	m.EmailsSent.Add(float64(n))
}
