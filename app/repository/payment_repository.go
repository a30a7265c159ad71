package repository

import (
	"context"
	"errors"

	"github.com/ManuelReschke/PaymentBot/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// List returns all payments ordered by id, the order rows are checked in
func (r *paymentRepository) List(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Order("id ASC").Find(&payments).Error
	return payments, err
}

// GetByIdentity returns the first payment of identity, nil if none
func (r *paymentRepository) GetByIdentity(ctx context.Context, identity string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("LOWER(identity) = LOWER(?)", identity).Order("id ASC").First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// Upsert creates the payment or updates email and expiration when the id exists
func (r *paymentRepository) Upsert(ctx context.Context, payment *models.Payment) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"identity", "email", "expires_at", "updated_at"}),
	}).Create(payment).Error
}

// Delete removes a payment by id
func (r *paymentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}
