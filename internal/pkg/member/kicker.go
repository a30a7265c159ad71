package member

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/gofiber/fiber/v2/log"
)

const (
	// BanDuration bounds a kick so the member can come back with a fresh invite
	BanDuration = 60 * time.Second
	// KickThrottle is the pause between consecutive bans
	KickThrottle = 10 * time.Millisecond
)

// Kicker removes non compliant members. When dryRun is set no ban is issued
// but every method still reports what would have been done.
type Kicker struct {
	evaluator *Evaluator
	ban       chat.BanAPI
	dryRun    bool
	throttle  time.Duration
}

// NewKicker creates a kicker
func NewKicker(evaluator *Evaluator, ban chat.BanAPI, dryRun bool) *Kicker {
	return &Kicker{
		evaluator: evaluator,
		ban:       ban,
		dryRun:    dryRun,
		throttle:  KickThrottle,
	}
}

// DryRun reports whether bans are suppressed
func (k *Kicker) DryRun() bool {
	return k.dryRun
}

// Evaluator returns the evaluator the kicker decides with
func (k *Kicker) Evaluator() *Evaluator {
	return k.evaluator
}

// KickAllWithExpiredPayment kicks every member with an expired payment and returns them.
// When a ban fails the members banned before it are returned together with the error.
func (k *Kicker) KickAllWithExpiredPayment(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	members, err := k.evaluator.GetAllWithExpiredPayment(ctx, c)
	if err != nil {
		return nil, err
	}
	return k.kickAll(ctx, c, members)
}

// KickAllWithNoUsername kicks every member without a username and returns them
func (k *Kicker) KickAllWithNoUsername(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	members, err := k.evaluator.GetAllWithNoUsername(ctx, c)
	if err != nil {
		return nil, err
	}
	return k.kickAll(ctx, c, members)
}

// KickSingleIfExpiredPayment kicks u when its payment is expired and reports whether it was
func (k *Kicker) KickSingleIfExpiredPayment(ctx context.Context, c chat.Chat, u chat.User) (bool, error) {
	expired, err := k.evaluator.IsSingleMemberExpired(ctx, c, u)
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}
	return true, k.kickOne(ctx, c, u)
}

// KickSingleIfNoUsername kicks u when it cannot be matched against the ledger and reports whether
// that was the case. In username mode this means the user has no username.
func (k *Kicker) KickSingleIfNoUsername(ctx context.Context, c chat.Chat, u chat.User) (bool, error) {
	if k.evaluator.HasIdentity(u) {
		return false, nil
	}
	return true, k.kickOne(ctx, c, u)
}

// kickAll returns the members actually banned, a prefix of members when it stops early
func (k *Kicker) kickAll(ctx context.Context, c chat.Chat, members chat.MemberList) (chat.MemberList, error) {
	if len(members) == 0 {
		return members, nil
	}
	if k.dryRun {
		log.Infof("[Kicker] Test mode ON: no member was kicked from chat %s", c.TitleOrID())
		return members, nil
	}

	for i, m := range members {
		if i > 0 && k.throttle > 0 {
			select {
			case <-ctx.Done():
				return members[:i], ctx.Err()
			case <-time.After(k.throttle):
			}
		}
		if err := k.ban.Kick(ctx, c, m.User, BanDuration); err != nil {
			return members[:i], fmt.Errorf("kick %s from chat %d: %w", m.User.NameOrID(), c.ID, err)
		}
	}
	return members, nil
}

func (k *Kicker) kickOne(ctx context.Context, c chat.Chat, u chat.User) error {
	if k.dryRun {
		log.Infof("[Kicker] Test mode ON: %s was not kicked from chat %s", u.NameOrID(), c.TitleOrID())
		return nil
	}
	if err := k.ban.Kick(ctx, c, u, BanDuration); err != nil {
		return fmt.Errorf("kick %s from chat %d: %w", u.NameOrID(), c.ID, err)
	}
	return nil
}
