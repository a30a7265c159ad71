package joingate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/audit"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat/chattest"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment/paymenttest"
)

var (
	group   = chat.Chat{ID: -200, Title: "Group"}
	paid    = chat.User{ID: 1, Username: "paid"}
	expired = chat.User{ID: 2, Username: "expired"}
	unknown = chat.User{ID: 3, Username: "unknown"}
	noName  = chat.User{ID: 4, FirstName: "No", LastName: "Name"}
	botUser = chat.User{ID: 5, Username: "other_bot", IsBot: true}
	self    = chat.User{ID: 6, Username: "payment_bot", IsBot: true, IsSelf: true}
)

type memKickRecords struct {
	mu      sync.Mutex
	records []models.KickRecord
}

func (s *memKickRecords) CreateBatch(_ context.Context, records []models.KickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func newTestGate(dryRun bool) (*Gate, *chattest.Bans, *chattest.Messages, *memKickRecords) {
	gate, bans, messages, records, _ := newTestGateWithSource(dryRun)
	return gate, bans, messages, records
}

func newTestGateWithSource(dryRun bool) (*Gate, *chattest.Bans, *chattest.Messages, *memKickRecords, *paymenttest.Source) {
	clock := paymenttest.Clock(2024, 3, 10)
	members := chattest.NewMembers().Add(group, chat.StatusMember, paid, expired, unknown, noName, botUser, self)
	src := paymenttest.NewSource(
		paymenttest.Row("paid", "paid@example.com", "2024-06-01"),
		paymenttest.Row("expired", "expired@example.com", "2024-01-01"),
	)
	cache := payment.NewLedgerCache(paymenttest.Loader(src, clock))
	bans := &chattest.Bans{}
	kicker := member.NewKicker(member.NewEvaluator(members, cache, payment.ByUsername, member.WithClock(clock)), bans, dryRun)
	messages := &chattest.Messages{}
	records := &memKickRecords{}
	return New(kicker, messages, audit.NewRecorder(records), nil), bans, messages, records, src
}

func TestGateOnNewMembers(t *testing.T) {
	gate, bans, messages, records := newTestGate(false)

	decisions := gate.OnNewMembers(context.Background(), group, []chat.User{paid, expired, unknown, noName, botUser, self})
	require.Len(t, decisions, 6)

	want := []Outcome{OutcomeOK, OutcomeExpiredPayment, OutcomeExpiredPayment, OutcomeNoUsername, OutcomeSkipped, OutcomeSkipped}
	for i, d := range decisions {
		assert.Equal(t, want[i], d.Outcome, d.User.NameOrID())
	}

	assert.Len(t, bans.Bans(), 3)
	assert.Len(t, messages.Messages(), 3)

	require.Len(t, records.records, 3)
	assert.Equal(t, models.KICK_REASON_NO_USERNAME, records.records[2].Reason)
	for _, r := range records.records {
		assert.Equal(t, models.KICK_SOURCE_JOIN, r.Source)
		assert.False(t, r.DryRun)
	}
}

func TestGateDryRun(t *testing.T) {
	gate, bans, _, records := newTestGate(true)
	assert.True(t, gate.DryRun())

	decisions := gate.OnNewMembers(context.Background(), group, []chat.User{expired})
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeExpiredPayment, decisions[0].Outcome)
	assert.Empty(t, bans.Bans())
	require.Len(t, records.records, 1)
	assert.True(t, records.records[0].DryRun)
}

func TestGateBanFailure(t *testing.T) {
	gate, bans, messages, _ := newTestGate(false)
	bans.FailFor = map[int64]bool{noName.ID: true}

	decisions := gate.OnNewMembers(context.Background(), group, []chat.User{noName, paid})
	require.Len(t, decisions, 2)
	assert.Equal(t, OutcomeError, decisions[0].Outcome)
	assert.Equal(t, OutcomeOK, decisions[1].Outcome)
	assert.Empty(t, messages.Messages())
}

func TestGateKicksWhenPaymentsCannotBeLoaded(t *testing.T) {
	gate, bans, messages, records, src := newTestGateWithSource(false)
	src.SetError(errors.New("sheet unreachable"))

	decisions := gate.OnNewMembers(context.Background(), group, []chat.User{paid})
	require.Len(t, decisions, 1)
	assert.Equal(t, OutcomeExpiredPayment, decisions[0].Outcome)

	require.Len(t, bans.Bans(), 1)
	assert.Equal(t, paid.ID, bans.Bans()[0].UserID)
	require.Len(t, messages.Messages(), 1)
	assert.Contains(t, messages.Messages()[0].Text, "no payment")
	require.Len(t, records.records, 1)
	assert.Equal(t, models.KICK_REASON_EXPIRED_PAYMENT, records.records[0].Reason)
}
