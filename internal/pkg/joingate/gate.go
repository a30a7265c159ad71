package joingate

import (
	"context"
	"fmt"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/audit"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/metrics"
	"github.com/gofiber/fiber/v2/log"
)

// Outcome is the decision taken for a joined user
type Outcome string

const (
	OutcomeSkipped        Outcome = "skipped"
	OutcomeOK             Outcome = "ok"
	OutcomeNoUsername     Outcome = "kicked_no_username"
	OutcomeExpiredPayment Outcome = "kicked_no_payment"
	OutcomeError          Outcome = "error"
)

// Decision pairs a joined user with the outcome of its check
type Decision struct {
	User    chat.User `json:"user"`
	Outcome Outcome   `json:"outcome"`
}

// Gate checks users as soon as they join a chat
type Gate struct {
	kicker   *member.Kicker
	notifier chat.NotificationSink
	recorder *audit.Recorder
	metrics  *metrics.Metrics
}

// New creates a join gate
func New(kicker *member.Kicker, notifier chat.NotificationSink, recorder *audit.Recorder, m *metrics.Metrics) *Gate {
	return &Gate{
		kicker:   kicker,
		notifier: notifier,
		recorder: recorder,
		metrics:  m,
	}
}

// DryRun reports whether the gate only logs its kicks
func (g *Gate) DryRun() bool {
	return g.kicker.DryRun()
}

// OnNewMembers checks every joined user. The identity check comes first: in username
// mode a user without a username can never match a payment and must not be reported as expired.
func (g *Gate) OnNewMembers(ctx context.Context, c chat.Chat, users []chat.User) []Decision {
	decisions := make([]Decision, 0, len(users))
	runID := audit.NewRunID()

	for _, u := range users {
		if u.IsSelf || u.IsBot {
			decisions = append(decisions, Decision{User: u, Outcome: OutcomeSkipped})
			continue
		}
		decisions = append(decisions, Decision{User: u, Outcome: g.checkUser(ctx, runID, c, u)})
	}
	return decisions
}

func (g *Gate) checkUser(ctx context.Context, runID string, c chat.Chat, u chat.User) Outcome {
	noUsername, err := g.kicker.KickSingleIfNoUsername(ctx, c, u)
	if err != nil {
		log.Errorf("[JoinGate] Unable to check new user %s: %v", u.NameOrID(), err)
		return OutcomeError
	}
	if noUsername {
		log.Infof("[JoinGate] New user %s kicked (joined with no username)", u.NameOrID())
		g.record(ctx, runID, models.KICK_REASON_NO_USERNAME, c, u)
		g.notify(ctx, c, fmt.Sprintf("New member %s removed from chat %s: no username", u.NameOrID(), c.TitleOrID()))
		return OutcomeNoUsername
	}

	expired, err := g.kicker.KickSingleIfExpiredPayment(ctx, c, u)
	if err != nil {
		log.Errorf("[JoinGate] Unable to check payment of new user %s: %v", u.NameOrID(), err)
		return OutcomeError
	}
	if expired {
		log.Infof("[JoinGate] New user %s kicked (joined with no payment)", u.NameOrID())
		g.record(ctx, runID, models.KICK_REASON_EXPIRED_PAYMENT, c, u)
		g.notify(ctx, c, fmt.Sprintf("New member %s removed from chat %s: no payment", u.NameOrID(), c.TitleOrID()))
		return OutcomeExpiredPayment
	}

	log.Infof("[JoinGate] New user %s joined, username and payment ok", u.NameOrID())
	return OutcomeOK
}

func (g *Gate) record(ctx context.Context, runID, reason string, c chat.Chat, u chat.User) {
	g.recorder.Record(ctx, runID, models.KICK_SOURCE_JOIN, reason, c, []chat.User{u}, g.kicker.DryRun())
	g.metrics.AddKicked(reason, g.kicker.DryRun(), 1)
}

func (g *Gate) notify(ctx context.Context, c chat.Chat, text string) {
	if g.notifier != nil {
		g.notifier.Broadcast(ctx, c, text)
	}
}
