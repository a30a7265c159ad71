// Package chattest provides in-memory chat platform fakes for tests.
package chattest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

// Members is an in-memory chat.MembershipSource
type Members struct {
	mu    sync.Mutex
	chats map[int64]chat.MemberList
	// Err is returned by every call when set
	Err error
}

func NewMembers() *Members {
	return &Members{chats: make(map[int64]chat.MemberList)}
}

// Add puts users into c with the given status
func (m *Members) Add(c chat.Chat, status chat.MemberStatus, users ...chat.User) *Members {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.chats[c.ID] = append(m.chats[c.ID], chat.Member{User: u, Status: status})
	}
	return m
}

// Remove drops u from c
func (m *Members) Remove(c chat.Chat, u chat.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[c.ID] = m.chats[c.ID].Filter(func(mem chat.Member) bool { return mem.User.ID != u.ID })
}

// Clear drops every member of c
func (m *Members) Clear(c chat.Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, c.ID)
}

func (m *Members) GetAll(_ context.Context, c chat.Chat) (chat.MemberList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := append(chat.MemberList{}, m.chats[c.ID]...)
	out.Sort()
	return out, nil
}

func (m *Members) GetSingle(_ context.Context, c chat.Chat, u chat.User) (*chat.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if mem, ok := m.chats[c.ID].ByUserID(u.ID); ok {
		return &mem, nil
	}
	return nil, nil
}

func (m *Members) FilterMembers(ctx context.Context, c chat.Chat, pred func(chat.Member) bool) (chat.MemberList, error) {
	all, err := m.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	return all.Filter(pred), nil
}

// Ban is one recorded kick
type Ban struct {
	ChatID   int64
	UserID   int64
	Duration time.Duration
}

// Bans records the kicks it receives. Members, when set, loses the kicked users.
type Bans struct {
	mu      sync.Mutex
	bans    []Ban
	unbans  []Ban
	Members *Members
	// FailFor makes Kick fail for these user ids
	FailFor map[int64]bool
}

func (b *Bans) Kick(_ context.Context, c chat.Chat, u chat.User, d time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailFor[u.ID] {
		return errors.New("not enough rights to restrict/unrestrict chat member")
	}
	b.bans = append(b.bans, Ban{ChatID: c.ID, UserID: u.ID, Duration: d})
	if b.Members != nil {
		b.Members.Remove(c, u)
	}
	return nil
}

func (b *Bans) Unban(_ context.Context, c chat.Chat, u chat.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unbans = append(b.unbans, Ban{ChatID: c.ID, UserID: u.ID})
	return nil
}

// Bans returns the recorded kicks
func (b *Bans) Bans() []Ban {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Ban(nil), b.bans...)
}

// Message is one recorded message
type Message struct {
	ChatID int64
	Text   string
}

// Messages records sent messages and broadcasts
type Messages struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (s *Messages) SendMessage(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.messages = append(s.messages, Message{ChatID: chatID, Text: text})
	return nil
}

// Broadcast implements chat.NotificationSink by recording text for the chat
func (s *Messages) Broadcast(ctx context.Context, c chat.Chat, text string) {
	_ = s.SendMessage(ctx, c.ID, text)
}

// Messages returns the recorded messages
func (s *Messages) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}
