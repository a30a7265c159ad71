package payment

import (
	"context"

	"github.com/ManuelReschke/PaymentBot/app/models"
)

// PaymentLister lists the stored payment rows ordered by id.
// Compliance errors of this source report the row id instead of a sheet row.
type PaymentLister interface {
	List(ctx context.Context) ([]models.Payment, error)
}

// DatabaseSource reads payment rows from the payments table
type DatabaseSource struct {
	repo PaymentLister
}

// NewDatabaseSource creates a source over repo
func NewDatabaseSource(repo PaymentLister) *DatabaseSource {
	return &DatabaseSource{repo: repo}
}

func (s *DatabaseSource) Name() string {
	return "table \"payments\""
}

func (s *DatabaseSource) Rows(ctx context.Context) ([]Row, error) {
	payments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, Row{
			Identity:   p.Identity,
			Email:      p.Email,
			Expiration: p.ExpiresAt,
			Line:       int(p.ID),
		})
	}
	return rows, nil
}
