package controllers

import (
	"context"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/config"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/joingate"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/telegram"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// RosterUpdater keeps the member roster in sync with chat updates
type RosterUpdater interface {
	Join(ctx context.Context, c chat.Chat, u chat.User) error
	SetStatus(ctx context.Context, c chat.Chat, u chat.User, status chat.MemberStatus) error
	Leave(ctx context.Context, c chat.Chat, u chat.User) error
	Forget(ctx context.Context, c chat.Chat) error
}

// ChatLeaver is told when the bot is no longer part of a chat
type ChatLeaver interface {
	ChatLeft(c chat.Chat)
}

// GateFactory returns the join gate for one update
type GateFactory func() *joingate.Gate

// WebhookController receives the chat platform updates
type WebhookController struct {
	roster RosterUpdater
	gates  GateFactory
	flags  *config.Flags
	leaver ChatLeaver
	botID  int64
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(roster RosterUpdater, gates GateFactory, flags *config.Flags, leaver ChatLeaver, botID int64) *WebhookController {
	return &WebhookController{
		roster: roster,
		gates:  gates,
		flags:  flags,
		leaver: leaver,
		botID:  botID,
	}
}

// HandleUpdate processes one update. It always answers 200 once the body is valid,
// otherwise the platform keeps redelivering the same update.
func (wc *WebhookController) HandleUpdate(c *fiber.Ctx) error {
	var update telegram.Update
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid update"})
	}
	ctx := c.UserContext()

	var decisions []joingate.Decision
	switch {
	case update.Message != nil && len(update.Message.NewChatMembers) > 0:
		decisions = wc.onNewMembers(ctx, update.Message.Chat.Chat(), update.Message.NewChatMembers)
	case update.Message != nil && update.Message.LeftChatMember != nil:
		wc.onLeft(ctx, update.Message.Chat.Chat(), *update.Message.LeftChatMember)
	case update.MyChatMember != nil:
		wc.onMyChatMember(ctx, *update.MyChatMember)
	case update.ChatMember != nil:
		wc.onChatMember(ctx, *update.ChatMember)
	}

	return c.JSON(fiber.Map{"ok": true, "decisions": decisions})
}

func (wc *WebhookController) onNewMembers(ctx context.Context, ch chat.Chat, users []chat.User) []joingate.Decision {
	failed := make(map[int64]bool)
	joined := make([]chat.User, 0, len(users))
	for _, u := range users {
		if err := wc.roster.Join(ctx, ch, u); err != nil {
			log.Errorf("[Webhook] New user %s not added to roster of chat %s, not checked: %v", u.NameOrID(), ch.TitleOrID(), err)
			failed[u.ID] = true
			continue
		}
		joined = append(joined, u)
	}

	if !wc.flags.CheckOnJoin() || wc.gates == nil {
		return nil
	}
	gate := wc.gates()
	checked := gate.OnNewMembers(ctx, ch, wc.markSelf(joined))

	// a user missing from the roster would look like a non member to the gate
	decisions := make([]joingate.Decision, 0, len(users))
	next := 0
	for _, u := range users {
		if failed[u.ID] {
			decisions = append(decisions, joingate.Decision{User: u, Outcome: joingate.OutcomeError})
			continue
		}
		decisions = append(decisions, checked[next])
		next++
	}

	if gate.DryRun() {
		return decisions
	}
	for _, d := range decisions {
		if d.Outcome == joingate.OutcomeNoUsername || d.Outcome == joingate.OutcomeExpiredPayment {
			if err := wc.roster.Leave(ctx, ch, d.User); err != nil {
				log.Errorf("[Webhook] Unable to remove kicked user %s from roster of chat %s: %v", d.User.NameOrID(), ch.TitleOrID(), err)
			}
		}
	}
	return decisions
}

func (wc *WebhookController) onLeft(ctx context.Context, ch chat.Chat, u chat.User) {
	if wc.isSelf(u) {
		wc.botLeft(ctx, ch)
		return
	}
	if err := wc.roster.Leave(ctx, ch, u); err != nil {
		log.Errorf("[Webhook] Unable to remove user %s from roster of chat %s: %v", u.NameOrID(), ch.TitleOrID(), err)
	}
}

func (wc *WebhookController) onMyChatMember(ctx context.Context, upd telegram.ChatMemberUpdated) {
	if upd.Left() {
		wc.botLeft(ctx, upd.Chat.Chat())
	}
}

// onChatMember only maintains the roster, joins are gated from the join service message
func (wc *WebhookController) onChatMember(ctx context.Context, upd telegram.ChatMemberUpdated) {
	ch := upd.Chat.Chat()
	u := upd.NewChatMember.User
	switch {
	case upd.Left():
		wc.onLeft(ctx, ch, u)
	default:
		if upd.Joined() || upd.OldChatMember.Status != upd.NewChatMember.Status {
			_ = wc.roster.SetStatus(ctx, ch, u, chat.MemberStatus(upd.NewChatMember.Status))
		}
	}
}

func (wc *WebhookController) botLeft(ctx context.Context, ch chat.Chat) {
	log.Infof("[Webhook] Bot removed from chat %s", ch.TitleOrID())
	if wc.leaver != nil {
		wc.leaver.ChatLeft(ch)
	}
	if err := wc.roster.Forget(ctx, ch); err != nil {
		log.Errorf("[Webhook] Unable to drop roster of chat %s: %v", ch.TitleOrID(), err)
	}
}

func (wc *WebhookController) isSelf(u chat.User) bool {
	return wc.botID != 0 && u.ID == wc.botID
}

func (wc *WebhookController) markSelf(users []chat.User) []chat.User {
	out := make([]chat.User, len(users))
	for i, u := range users {
		u.IsSelf = wc.isSelf(u)
		out[i] = u
	}
	return out
}
