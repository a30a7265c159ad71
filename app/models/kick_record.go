package models

import "time"

const (
	KICK_REASON_EXPIRED_PAYMENT = "expired_payment"
	KICK_REASON_NO_USERNAME     = "no_username"
)

const (
	KICK_SOURCE_AUDIT   = "audit"
	KICK_SOURCE_JOIN    = "join"
	KICK_SOURCE_COMMAND = "command"
)

// KickRecord keeps track of every member removed (or, in test mode, selected for removal)
type KickRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RunID     string    `gorm:"type:char(36);index" json:"run_id"`
	Source    string    `gorm:"type:varchar(20);not null" json:"source"`
	ChatID    int64     `gorm:"not null;index" json:"chat_id"`
	ChatTitle string    `gorm:"type:varchar(255);default:null" json:"chat_title"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Username  string    `gorm:"type:varchar(100);default:null" json:"username"`
	Reason    string    `gorm:"type:varchar(50);not null" json:"reason"`
	DryRun    bool      `gorm:"default:false" json:"dry_run"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
