package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// Get retrieves a setting by key, nil when it was never stored
func (r *settingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

// Save creates or updates a setting by key
func (r *settingRepository) Save(ctx context.Context, setting *models.Setting) error {
	if err := setting.Validate(); err != nil {
		return fmt.Errorf("invalid setting %s: %w", setting.Key, err)
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(setting).Error
}

func (r *settingRepository) List(ctx context.Context) ([]models.Setting, error) {
	var settings []models.Setting
	err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&settings).Error
	return settings, err
}

// GetBool reads a boolean setting, found is false when it is missing or malformed
func (r *settingRepository) GetBool(ctx context.Context, key string) (bool, bool, error) {
	setting, err := r.Get(ctx, key)
	if err != nil || setting == nil {
		return false, false, err
	}
	v, ok := setting.Bool()
	return v, ok, nil
}

// SetBool stores a boolean setting
func (r *settingRepository) SetBool(ctx context.Context, key string, value bool) error {
	setting := models.NewBoolSetting(key, value)
	return r.Save(ctx, &setting)
}
