package models

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SETTING_TEST_MODE     = "test_mode"
	SETTING_CHECK_ON_JOIN = "check_on_join"

	SETTING_TYPE_BOOLEAN = "boolean"
	SETTING_TYPE_STRING  = "string"
)

// Setting is a runtime switch persisted across restarts
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required,oneof=boolean string"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBoolSetting creates a boolean setting
func NewBoolSetting(key string, value bool) Setting {
	return Setting{Key: key, Value: strconv.FormatBool(value), Type: SETTING_TYPE_BOOLEAN}
}

// Bool returns the value of a boolean setting, false when it cannot be parsed
func (s Setting) Bool() (bool, bool) {
	v, err := strconv.ParseBool(s.Value)
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate validates the setting
func (s *Setting) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}
