package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment rows used by the database payment source
type PaymentRepository interface {
	List(ctx context.Context) ([]models.Payment, error)
	GetByIdentity(ctx context.Context, identity string) (*models.Payment, error)
	Upsert(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id uint) error
}

// KickRecordRepository defines the interface for the enforcement audit trail
type KickRecordRepository interface {
	CreateBatch(ctx context.Context, records []models.KickRecord) error
	ListByRun(ctx context.Context, runID string) ([]models.KickRecord, error)
	ListByChat(ctx context.Context, chatID int64, limit int) ([]models.KickRecord, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// ChatMemberRepository defines the interface for the chat member roster
type ChatMemberRepository interface {
	Upsert(ctx context.Context, member *models.ChatMember) error
	Get(ctx context.Context, chatID, userID int64) (*models.ChatMember, error)
	ListByChat(ctx context.Context, chatID int64) ([]models.ChatMember, error)
	Delete(ctx context.Context, chatID, userID int64) error
	DeleteChat(ctx context.Context, chatID int64) error
}

// SettingRepository defines the interface for persisted runtime settings
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.Setting, error)
	Save(ctx context.Context, setting *models.Setting) error
	List(ctx context.Context) ([]models.Setting, error)
	GetBool(ctx context.Context, key string) (bool, bool, error)
	SetBool(ctx context.Context, key string, value bool) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Payment    PaymentRepository
	KickRecord KickRecordRepository
	ChatMember ChatMemberRepository
	Setting    SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Payment:    NewPaymentRepository(db),
		KickRecord: NewKickRecordRepository(db),
		ChatMember: NewChatMemberRepository(db),
		Setting:    NewSettingRepository(db),
	}
}
