package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Payment is a subscription payment row used by the database payment source
type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Identity  string    `gorm:"type:varchar(100);not null;index" json:"identity" validate:"required,max=100"`
	Email     string    `gorm:"type:varchar(200);default:null" json:"email" validate:"omitempty,email,max=200"`
	ExpiresAt time.Time `gorm:"type:date;not null" json:"expires_at" validate:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
