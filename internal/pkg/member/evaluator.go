package member

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
	"github.com/gofiber/fiber/v2/log"
)

// Evaluator classifies chat members against the payment ledger
type Evaluator struct {
	members chat.MembershipSource
	cache   *payment.LedgerCache
	mode    payment.IdentityMode
	now     func() time.Time
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithClock overrides the clock used for single member checks
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator creates an evaluator reading payments through cache
func NewEvaluator(members chat.MembershipSource, cache *payment.LedgerCache, mode payment.IdentityMode, opts ...Option) *Evaluator {
	e := &Evaluator{
		members: members,
		cache:   cache,
		mode:    mode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode returns the identity mode used to match members
func (e *Evaluator) Mode() payment.IdentityMode {
	return e.mode
}

// HasIdentity reports whether u can be matched against the ledger
func (e *Evaluator) HasIdentity(u chat.User) bool {
	_, ok := payment.IdentityOf(e.mode, u)
	return ok
}

// GetAllWithOkPayment returns the valid members whose payment is not expired
func (e *Evaluator) GetAllWithOkPayment(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	ledger, err := e.cache.Ledger(ctx)
	if err != nil {
		return nil, err
	}

	return e.members.FilterMembers(ctx, c, func(m chat.Member) bool {
		id, ok := payment.IdentityOf(e.mode, m.User)
		return m.IsValid() && ok && !ledger.IsExpired(id)
	})
}

// GetAllWithExpiredPayment returns the valid members with no identity or an expired payment.
// An empty ledger yields no member, a failed or empty load must never look like everybody expired.
func (e *Evaluator) GetAllWithExpiredPayment(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	ledger, err := e.cache.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	if ledger.Empty() {
		return chat.MemberList{}, nil
	}

	return e.members.FilterMembers(ctx, c, func(m chat.Member) bool {
		id, ok := payment.IdentityOf(e.mode, m.User)
		return m.IsValid() && (!ok || ledger.IsExpired(id))
	})
}

// GetAllWithExpiringPayment returns the valid members with no identity or a payment expiring within days
func (e *Evaluator) GetAllWithExpiringPayment(ctx context.Context, c chat.Chat, days int) (chat.MemberList, error) {
	ledger, err := e.cache.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	if ledger.Empty() {
		return chat.MemberList{}, nil
	}

	return e.members.FilterMembers(ctx, c, func(m chat.Member) bool {
		id, ok := payment.IdentityOf(e.mode, m.User)
		return m.IsValid() && (!ok || ledger.IsExpiringInDays(id, days))
	})
}

// GetAllWithNoUsername returns the valid members without a public handle
func (e *Evaluator) GetAllWithNoUsername(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	return e.members.FilterMembers(ctx, c, func(m chat.Member) bool {
		return m.IsValid() && !m.User.HasUsername()
	})
}

// IsSingleMemberExpired reports whether u, a member of c, has no valid payment.
// Non members are never reported, members without a payment record are. Unlike the
// bulk queries a ledger that cannot be loaded counts as no record.
func (e *Evaluator) IsSingleMemberExpired(ctx context.Context, c chat.Chat, u chat.User) (bool, error) {
	m, err := e.members.GetSingle(ctx, c, u)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}

	id, ok := payment.IdentityOf(e.mode, u)
	if !ok {
		return true, nil
	}
	record, err := e.cache.Single(ctx, id)
	if err != nil {
		var loaderErr *payment.LoaderError
		if !errors.As(err, &loaderErr) {
			return false, err
		}
		log.Errorf("[PaymentLedger] Payments could not be loaded, %s is considered expired: %v", u.NameOrID(), err)
		return true, nil
	}
	if record == nil {
		return true, nil
	}
	return record.IsExpired(e.now()), nil
}

// ExpiredPayments returns the ledger records already expired
func (e *Evaluator) ExpiredPayments(ctx context.Context) (*payment.Ledger, error) {
	ledger, err := e.cache.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.FilterExpired(), nil
}

// ExpiringPayments returns the ledger records expiring within days
func (e *Evaluator) ExpiringPayments(ctx context.Context, days int) (*payment.Ledger, error) {
	ledger, err := e.cache.Ledger(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.FilterExpiringInDays(days), nil
}
