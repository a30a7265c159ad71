package payment

import (
	"strings"
	"time"
)

// Ledger is an immutable snapshot of payment records keyed by identity
type Ledger struct {
	records       map[string]Record
	order         []string
	emails        map[string]struct{}
	checkDupEmail bool
	now           func() time.Time
}

// NewLedger creates an empty ledger. now may be nil, in which case time.Now is used.
func NewLedger(checkDupEmail bool, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		records:       make(map[string]Record),
		emails:        make(map[string]struct{}),
		checkDupEmail: checkDupEmail,
		now:           now,
	}
}

// add inserts r unless its identity, or its non-empty email when checked, is already present
func (l *Ledger) add(r Record) bool {
	key := r.Identity.Key()
	if _, ok := l.records[key]; ok {
		return false
	}
	// emails compare case-insensitively, like GetByEmail
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if l.checkDupEmail && email != "" {
		if _, ok := l.emails[email]; ok {
			return false
		}
	}
	l.records[key] = r
	l.order = append(l.order, key)
	if email != "" {
		l.emails[email] = struct{}{}
	}
	return true
}

// Count returns the number of records
func (l *Ledger) Count() int {
	return len(l.order)
}

// Empty reports whether the ledger holds no record
func (l *Ledger) Empty() bool {
	return len(l.order) == 0
}

// Get returns the record of the given identity
func (l *Ledger) Get(id Identity) (Record, bool) {
	if !id.IsValid() {
		return Record{}, false
	}
	r, ok := l.records[id.Key()]
	return r, ok
}

// GetByEmail returns the first record carrying email
func (l *Ledger) GetByEmail(email string) (Record, bool) {
	for _, key := range l.order {
		if r := l.records[key]; strings.EqualFold(r.Email, email) {
			return r, true
		}
	}
	return Record{}, false
}

// Records returns all records in insertion order
func (l *Ledger) Records() []Record {
	out := make([]Record, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.records[key])
	}
	return out
}

// IsExpired reports whether the payment of id is expired. Unknown identities count as expired.
func (l *Ledger) IsExpired(id Identity) bool {
	r, ok := l.Get(id)
	if !ok {
		return true
	}
	return r.IsExpired(l.now())
}

// IsExpiringInDays reports whether the payment of id expires within days. Unknown identities count as expiring.
func (l *Ledger) IsExpiringInDays(id Identity, days int) bool {
	r, ok := l.Get(id)
	if !ok {
		return true
	}
	return r.IsExpiringInDays(l.now(), days)
}

// FilterExpired returns a ledger with the expired records only
func (l *Ledger) FilterExpired() *Ledger {
	today := l.now()
	return l.filter(func(r Record) bool { return r.IsExpired(today) })
}

// FilterNotExpired returns a ledger with the records still valid today
func (l *Ledger) FilterNotExpired() *Ledger {
	today := l.now()
	return l.filter(func(r Record) bool { return !r.IsExpired(today) })
}

// FilterExpiringInDays returns a ledger with the records expiring within days
func (l *Ledger) FilterExpiringInDays(days int) *Ledger {
	today := l.now()
	return l.filter(func(r Record) bool { return r.IsExpiringInDays(today, days) })
}

func (l *Ledger) filter(keep func(Record) bool) *Ledger {
	out := NewLedger(false, l.now)
	for _, key := range l.order {
		if r := l.records[key]; keep(r) {
			out.add(r)
		}
	}
	out.checkDupEmail = l.checkDupEmail
	return out
}

func (l *Ledger) String() string {
	lines := make([]string, 0, len(l.order))
	for _, r := range l.Records() {
		lines = append(lines, "- "+r.String())
	}
	return strings.Join(lines, "\n")
}
