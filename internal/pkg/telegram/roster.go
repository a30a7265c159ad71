package telegram

import (
	"context"
	"errors"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"github.com/ManuelReschke/PaymentBot/app/repository"
	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
	"github.com/gofiber/fiber/v2/log"
)

// Roster is the membership source of the bot. The Bot API has no call listing all
// members of a group, so membership is tracked from the join and leave updates.
type Roster struct {
	repo   repository.ChatMemberRepository
	botID  int64
	lookup MemberLookup
}

// MemberLookup asks the platform for a single membership
type MemberLookup interface {
	GetChatMember(ctx context.Context, c chat.Chat, userID int64) (*chat.Member, error)
}

// NewRoster creates a roster over repo, botID marks the bot own account
func NewRoster(repo repository.ChatMemberRepository, botID int64) *Roster {
	return &Roster{repo: repo, botID: botID}
}

// WithLookup makes GetSingle ask the platform about users missing from the roster,
// members who joined before the bot did are stored on first sight
func (r *Roster) WithLookup(lookup MemberLookup) *Roster {
	r.lookup = lookup
	return r
}

// Join stores u as a member of c
func (r *Roster) Join(ctx context.Context, c chat.Chat, u chat.User) error {
	return r.SetStatus(ctx, c, u, chat.StatusMember)
}

// SetStatus stores u with the given status in c
func (r *Roster) SetStatus(ctx context.Context, c chat.Chat, u chat.User, status chat.MemberStatus) error {
	if r.repo == nil {
		return errors.New("roster repository not available")
	}
	err := r.repo.Upsert(ctx, &models.ChatMember{
		ChatID:    c.ID,
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsBot:     u.IsBot,
		Status:    string(status),
	})
	if err != nil {
		log.Errorf("[Roster] Unable to store user %s in chat %s: %v", u.NameOrID(), c.TitleOrID(), err)
	}
	return err
}

// Leave removes u from the roster of c
func (r *Roster) Leave(ctx context.Context, c chat.Chat, u chat.User) error {
	if r.repo == nil {
		return errors.New("roster repository not available")
	}
	return r.repo.Delete(ctx, c.ID, u.ID)
}

// Forget drops the roster of c
func (r *Roster) Forget(ctx context.Context, c chat.Chat) error {
	if r.repo == nil {
		return errors.New("roster repository not available")
	}
	return r.repo.DeleteChat(ctx, c.ID)
}

func (r *Roster) GetAll(ctx context.Context, c chat.Chat) (chat.MemberList, error) {
	if r.repo == nil {
		return nil, errors.New("roster repository not available")
	}
	rows, err := r.repo.ListByChat(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	members := make(chat.MemberList, 0, len(rows))
	for _, row := range rows {
		members = append(members, r.toMember(row))
	}
	members.Sort()
	return members, nil
}

func (r *Roster) GetSingle(ctx context.Context, c chat.Chat, u chat.User) (*chat.Member, error) {
	if r.repo == nil {
		return nil, errors.New("roster repository not available")
	}
	row, err := r.repo.Get(ctx, c.ID, u.ID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		m := r.toMember(*row)
		return &m, nil
	}
	if r.lookup == nil {
		return nil, nil
	}

	m, err := r.lookup.GetChatMember(ctx, c, u.ID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.Status == chat.StatusLeft || m.Status == chat.StatusBanned {
		return nil, nil
	}
	log.Infof("[Roster] User %s found in chat %s, adding to roster", m.User.NameOrID(), c.TitleOrID())
	_ = r.SetStatus(ctx, c, m.User, m.Status)
	m.User.IsSelf = r.botID != 0 && m.User.ID == r.botID
	return m, nil
}

func (r *Roster) FilterMembers(ctx context.Context, c chat.Chat, pred func(chat.Member) bool) (chat.MemberList, error) {
	all, err := r.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	return all.Filter(pred), nil
}

func (r *Roster) toMember(row models.ChatMember) chat.Member {
	return chat.Member{
		User: chat.User{
			ID:        row.UserID,
			Username:  row.Username,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			IsBot:     row.IsBot,
			IsSelf:    r.botID != 0 && row.UserID == r.botID,
		},
		Status: chat.MemberStatus(row.Status),
	}
}
