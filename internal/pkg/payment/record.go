package payment

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Record is a single payment row of the ledger
type Record struct {
	Identity       Identity  `json:"identity"`
	Email          string    `json:"email"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// Date truncates t to its calendar day in UTC
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysLeft returns the number of days from today until the expiration date
func (r Record) DaysLeft(today time.Time) int {
	return int(Date(r.ExpirationDate).Sub(Date(today)).Hours() / 24)
}

// IsExpired reports whether the expiration date lies before today
func (r Record) IsExpired(today time.Time) bool {
	return Date(r.ExpirationDate).Before(Date(today))
}

// IsExpiringInDays reports whether less than days are left
func (r Record) IsExpiringInDays(today time.Time, days int) bool {
	return r.DaysLeft(today) < days
}

func (r Record) String() string {
	return fmt.Sprintf("%s (%s): %s", r.Email, r.Identity, r.ExpirationDate.Format(dateLayout))
}
