package payment

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

// IdentityMode selects how chat users are matched against payment rows
type IdentityMode int

const (
	// ByUsername matches on the case-insensitive handle
	ByUsername IdentityMode = iota
	// ByUserID matches on the numeric account id
	ByUserID
)

func (m IdentityMode) String() string {
	if m == ByUserID {
		return "user_id"
	}
	return "username"
}

// Identity is the key joining a chat user to a payment record
type Identity struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

// ParseIdentity reads an identity from a sheet cell
func ParseIdentity(mode IdentityMode, raw string) Identity {
	raw = strings.TrimSpace(raw)
	if mode == ByUserID {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Identity{ID: id}
		}
		// spreadsheet cells often carry ids as floats
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return Identity{ID: int64(f)}
		}
		return Identity{}
	}
	return Identity{Username: strings.TrimPrefix(raw, "@")}
}

// IdentityOf resolves the identity of a chat user, ok is false when the user cannot be matched
func IdentityOf(mode IdentityMode, u chat.User) (Identity, bool) {
	if mode == ByUserID {
		return Identity{ID: u.ID}, u.ID != 0
	}
	if !u.HasUsername() {
		return Identity{}, false
	}
	return Identity{Username: u.Username}, true
}

// IsValid reports whether the identity can be used as a ledger key
func (i Identity) IsValid() bool {
	return i.ID != 0 || i.Username != ""
}

// Key returns the normalized ledger key
func (i Identity) Key() string {
	if i.Username != "" {
		return "u:" + strings.ToLower(i.Username)
	}
	return fmt.Sprintf("i:%d", i.ID)
}

func (i Identity) String() string {
	if i.Username != "" {
		return i.Username
	}
	return strconv.FormatInt(i.ID, 10)
}
