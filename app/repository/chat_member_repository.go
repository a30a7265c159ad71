package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type chatMemberRepository struct {
	db *gorm.DB
}

// NewChatMemberRepository creates a new chat member repository instance
func NewChatMemberRepository(db *gorm.DB) ChatMemberRepository {
	return &chatMemberRepository{db: db}
}

// Upsert inserts the member or refreshes its profile and status
func (r *chatMemberRepository) Upsert(ctx context.Context, member *models.ChatMember) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "first_name", "last_name", "is_bot", "status", "updated_at"}),
	}).Create(member).Error
}

// Get returns nil when the user is not in the roster of the chat
func (r *chatMemberRepository) Get(ctx context.Context, chatID, userID int64) (*models.ChatMember, error) {
	var member models.ChatMember
	err := r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *chatMemberRepository) ListByChat(ctx context.Context, chatID int64) ([]models.ChatMember, error) {
	var members []models.ChatMember
	err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("id ASC").Find(&members).Error
	return members, err
}

func (r *chatMemberRepository) Delete(ctx context.Context, chatID, userID int64) error {
	return r.db.WithContext(ctx).Where("chat_id = ? AND user_id = ?", chatID, userID).Delete(&models.ChatMember{}).Error
}

// DeleteChat drops the whole roster of a chat
func (r *chatMemberRepository) DeleteChat(ctx context.Context, chatID int64) error {
	return r.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&models.ChatMember{}).Error
}
