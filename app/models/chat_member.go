package models

import "time"

// ChatMember is the roster entry of a user in a chat, kept up to date from chat updates
type ChatMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    int64     `gorm:"not null;uniqueIndex:idx_chat_user" json:"chat_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_chat_user" json:"user_id"`
	Username  string    `gorm:"type:varchar(100);default:null" json:"username"`
	FirstName string    `gorm:"type:varchar(150);default:null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150);default:null" json:"last_name"`
	IsBot     bool      `gorm:"default:false" json:"is_bot"`
	Status    string    `gorm:"type:varchar(20);not null;default:'member'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
