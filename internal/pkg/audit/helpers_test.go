package audit

import (
	"context"
	"sync"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat/chattest"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/member"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment/paymenttest"
)

var (
	clock     = paymenttest.Clock(2024, 3, 10)
	chatOne   = chat.Chat{ID: -101, Title: "One"}
	chatTwo   = chat.Chat{ID: -102, Title: "Two"}
	paidUser  = chat.User{ID: 1, Username: "paid"}
	lateUser  = chat.User{ID: 2, Username: "late"}
	otherLate = chat.User{ID: 3, Username: "other"}
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

func (s *memKickRecords) all() []models.KickRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.KickRecord(nil), s.records...)
}

type fixture struct {
	members  *chattest.Members
	bans     *chattest.Bans
	source   *paymenttest.Source
	messages *chattest.Messages
	records  *memKickRecords
	job      *Job
}

func newFixture(dryRun bool) *fixture {
	f := &fixture{
		members: chattest.NewMembers().
			Add(chatOne, chat.StatusMember, paidUser, lateUser).
			Add(chatTwo, chat.StatusMember, paidUser, otherLate),
		source: paymenttest.NewSource(
			paymenttest.Row("paid", "paid@example.com", "2024-04-01"),
			paymenttest.Row("late", "late@example.com", "2024-03-01"),
			paymenttest.Row("other", "other@example.com", "2024-02-01"),
		),
		messages: &chattest.Messages{},
		records:  &memKickRecords{},
	}
	f.bans = &chattest.Bans{Members: f.members}

	newKicker := func() *member.Kicker {
		cache := payment.NewLedgerCache(paymenttest.Loader(f.source, clock))
		ev := member.NewEvaluator(f.members, cache, payment.ByUsername, member.WithClock(clock))
		return member.NewKicker(ev, f.bans, dryRun)
	}
	f.job = NewJob(newKicker, f.messages, NewRecorder(f.records), nil)
	return f
}
