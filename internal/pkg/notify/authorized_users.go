package notify

import (
	"context"
	"strings"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/gofiber/fiber/v2/log"
)

// AuthorizedUsersSender delivers notices privately to the authorized members of a chat
type AuthorizedUsersSender struct {
	members    chat.MembershipSource
	sender     chat.MessageSender
	authorized map[string]struct{}
}

// NewAuthorizedUsersSender creates a sender for the given authorized usernames
func NewAuthorizedUsersSender(members chat.MembershipSource, sender chat.MessageSender, usernames []string) *AuthorizedUsersSender {
	authorized := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		u = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(u), "@"))
		if u != "" {
			authorized[u] = struct{}{}
		}
	}
	return &AuthorizedUsersSender{
		members:    members,
		sender:     sender,
		authorized: authorized,
	}
}

// IsAuthorized reports whether u may receive notices and issue commands
func (s *AuthorizedUsersSender) IsAuthorized(u chat.User) bool {
	if !u.HasUsername() {
		return false
	}
	_, ok := s.authorized[strings.ToLower(u.Username)]
	return ok
}

// AuthorizedUsers returns the authorized members of c
func (s *AuthorizedUsersSender) AuthorizedUsers(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	return s.members.FilterMembers(ctx, c, func(m chat.Member) bool {
		return s.IsAuthorized(m.User)
	})
}

// Broadcast sends text to every authorized member of c. Delivery failures are
// logged, a user who never talked to the bot cannot be reached.
func (s *AuthorizedUsersSender) Broadcast(ctx context.Context, c chat.Chat, text string) {
	users, err := s.AuthorizedUsers(ctx, c)
	if err != nil {
		log.Errorf("[Notify] Unable to get authorized users of chat %s: %v", c.TitleOrID(), err)
		return
	}

	for _, m := range users {
		if err := s.sender.SendMessage(ctx, m.User.ID, text); err != nil {
			log.Errorf("[Notify] Unable to send message to authorized user %s: %v", m.User.NameOrID(), err)
			continue
		}
		log.Infof("[Notify] Message sent to authorized user: %s", m.User.NameOrID())
	}
}
