package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"gorm.io/gorm"
)

type kickRecordRepository struct {
	db *gorm.DB
}

// NewKickRecordRepository creates a new kick record repository instance
func NewKickRecordRepository(db *gorm.DB) KickRecordRepository {
	return &kickRecordRepository{db: db}
}

func (r *kickRecordRepository) CreateBatch(ctx context.Context, records []models.KickRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *kickRecordRepository) ListByRun(ctx context.Context, runID string) ([]models.KickRecord, error) {
	var records []models.KickRecord
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("id ASC").Find(&records).Error
	return records, err
}

func (r *kickRecordRepository) ListByChat(ctx context.Context, chatID int64, limit int) ([]models.KickRecord, error) {
	var records []models.KickRecord
	query := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&records).Error
	return records, err
}

// DeleteOlderThan prunes the audit trail
func (r *kickRecordRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&models.KickRecord{})
	return result.RowsAffected, result.Error
}
