package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MemberStatus mirrors the chat platform member status values
type MemberStatus string

const (
	StatusOwner         MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusBanned        MemberStatus = "kicked"
)

// Chat is a group the bot is part of
type Chat struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// TitleOrID returns a printable chat reference for logs
func (c Chat) TitleOrID() string {
	if c.Title != "" {
		return fmt.Sprintf("'%s' (ID: %d)", c.Title, c.ID)
	}
	return fmt.Sprintf("%d", c.ID)
}

// User is a chat platform account
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsBot     bool   `json:"is_bot"`
	IsSelf    bool   `json:"-"`
}

// HasUsername reports whether the account has a public handle
func (u User) HasUsername() bool {
	return u.Username != ""
}

// Name returns first and last name joined
func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NameOrID returns a printable user reference
func (u User) NameOrID() string {
	name := u.Name()
	if u.Username != "" && name != "" {
		return fmt.Sprintf("@%s (%s - ID: %d)", u.Username, name, u.ID)
	}
	if u.Username != "" {
		return fmt.Sprintf("@%s (ID: %d)", u.Username, u.ID)
	}
	if name != "" {
		return fmt.Sprintf("%s (ID: %d)", name, u.ID)
	}
	return fmt.Sprintf("ID: %d", u.ID)
}

// Member is a user together with its status in a chat
type Member struct {
	User   User         `json:"user"`
	Status MemberStatus `json:"status"`
}

// IsValid reports whether the member is an ordinary human member, the only kind subject to checks
func (m Member) IsValid() bool {
	return m.Status == StatusMember && !m.User.IsSelf && !m.User.IsBot
}

// MemberList is an ordered list of chat members
type MemberList []Member

// Users returns the users of the list
func (l MemberList) Users() []User {
	users := make([]User, 0, len(l))
	for _, m := range l {
		users = append(users, m.User)
	}
	return users
}

// ByUserID returns the member with the given user id
func (l MemberList) ByUserID(id int64) (Member, bool) {
	for _, m := range l {
		if m.User.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Filter returns the members matching pred, keeping order
func (l MemberList) Filter(pred func(Member) bool) MemberList {
	out := MemberList{}
	for _, m := range l {
		if pred == nil || pred(m) {
			out = append(out, m)
		}
	}
	return out
}

// Sort orders members by lower-cased username, falling back to the numeric id
func (l MemberList) Sort() {
	key := func(m Member) string {
		if m.User.Username != "" {
			return strings.ToLower(m.User.Username)
		}
		return fmt.Sprintf("%d", m.User.ID)
	}
	sort.SliceStable(l, func(i, j int) bool { return key(l[i]) < key(l[j]) })
}

func (l MemberList) String() string {
	lines := make([]string, 0, len(l))
	for _, m := range l {
		lines = append(lines, "- "+m.User.NameOrID())
	}
	return strings.Join(lines, "\n")
}

// MembershipSource reads chat membership from the chat platform
type MembershipSource interface {
	GetAll(ctx context.Context, c Chat) (MemberList, error)
	// GetSingle returns nil when the user is not a member of the chat
	GetSingle(ctx context.Context, c Chat, u User) (*Member, error)
	FilterMembers(ctx context.Context, c Chat, pred func(Member) bool) (MemberList, error)
}

// BanAPI removes users from chats
type BanAPI interface {
	Kick(ctx context.Context, c Chat, u User, d time.Duration) error
	Unban(ctx context.Context, c Chat, u User) error
}

// MessageSender delivers a private message to a user
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// NotificationSink broadcasts operator notices about a chat
type NotificationSink interface {
	Broadcast(ctx context.Context, c Chat, text string)
}
