package telegram

import (
	"crypto/subtle"
	"strings"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

// SecretHeader carries the secret configured with setWebhook
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Update is the subset of a Bot API update the bot reacts to
type Update struct {
	UpdateID     int64              `json:"update_id"`
	Message      *Message           `json:"message,omitempty"`
	MyChatMember *ChatMemberUpdated `json:"my_chat_member,omitempty"`
	ChatMember   *ChatMemberUpdated `json:"chat_member,omitempty"`
}

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// Chat converts to the domain chat
func (c Chat) Chat() chat.Chat {
	return chat.Chat{ID: c.ID, Title: c.Title}
}

type Message struct {
	MessageID      int64       `json:"message_id"`
	From           *chat.User  `json:"from,omitempty"`
	Chat           Chat        `json:"chat"`
	Text           string      `json:"text,omitempty"`
	NewChatMembers []chat.User `json:"new_chat_members,omitempty"`
	LeftChatMember *chat.User  `json:"left_chat_member,omitempty"`
}

// ChatMember is a member entry as sent by the platform
type ChatMember struct {
	Status string    `json:"status"`
	User   chat.User `json:"user"`
}

// Member converts to the domain member
func (m ChatMember) Member() chat.Member {
	return chat.Member{User: m.User, Status: chat.MemberStatus(m.Status)}
}

type ChatMemberUpdated struct {
	Chat          Chat       `json:"chat"`
	From          chat.User  `json:"from"`
	Date          int64      `json:"date"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

// Joined reports whether the update moves the user into the chat
func (u ChatMemberUpdated) Joined() bool {
	return !isInside(u.OldChatMember.Status) && isInside(u.NewChatMember.Status)
}

// Left reports whether the update moves the user out of the chat
func (u ChatMemberUpdated) Left() bool {
	return isInside(u.OldChatMember.Status) && !isInside(u.NewChatMember.Status)
}

func isInside(status string) bool {
	switch chat.MemberStatus(status) {
	case chat.StatusOwner, chat.StatusAdministrator, chat.StatusMember, chat.StatusRestricted:
		return true
	}
	return false
}

// VerifyWebhookSecret compares the header value with the configured secret
func VerifyWebhookSecret(header, secret string) bool {
	h := strings.TrimSpace(header)
	s := strings.TrimSpace(secret)
	if h == "" || s == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h), []byte(s)) == 1
}
