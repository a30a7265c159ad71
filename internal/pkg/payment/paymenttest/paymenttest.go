// Package paymenttest provides in-memory payment sources for tests.
package paymenttest

import (
	"context"
	"sync"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/payment"
)

// Source is an in-memory payment.RowSource counting its reads
type Source struct {
	mu    sync.Mutex
	rows  []payment.Row
	err   error
	reads int
}

func NewSource(rows ...payment.Row) *Source {
	return &Source{rows: rows}
}

func (s *Source) Name() string {
	return "memory"
}

func (s *Source) Rows(_ context.Context) ([]payment.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]payment.Row(nil), s.rows...), nil
}

// SetRows replaces the rows
func (s *Source) SetRows(rows ...payment.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
}

// SetError makes every read fail with err, nil restores the rows
func (s *Source) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reads returns the number of reads
func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Clock returns a clock fixed at noon UTC of the given day
func Clock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

// Loader returns a username mode loader over src evaluated at now
func Loader(src *Source, now func() time.Time) payment.Loader {
	return payment.NewSheetLoader(src, payment.BuildOptions{
		Mode:       payment.ByUsername,
		DateFormat: "2006-01-02",
		Now:        now,
	})
}

// Row is a shorthand for a username row
func Row(username, email, expiration string) payment.Row {
	return payment.Row{Identity: username, Email: email, Expiration: expiration}
}
