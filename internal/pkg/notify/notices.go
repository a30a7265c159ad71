package notify

import (
	"fmt"
	"strings"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

// Contacts are appended to member facing notices when configured
type Contacts struct {
	SupportEmail    string
	SupportTelegram string
	PaymentWebsite  string
}

func (c Contacts) supportLine() string {
	switch {
	case c.SupportEmail != "" && c.SupportTelegram != "":
		return fmt.Sprintf("\n\nFor any question, contact %s or %s.", c.SupportEmail, c.SupportTelegram)
	case c.SupportEmail != "":
		return fmt.Sprintf("\n\nFor any question, contact %s.", c.SupportEmail)
	case c.SupportTelegram != "":
		return fmt.Sprintf("\n\nFor any question, contact %s.", c.SupportTelegram)
	}
	return ""
}

func chatTitle(c chat.Chat) string {
	if c.Title != "" {
		return c.Title
	}
	return fmt.Sprintf("%d", c.ID)
}

// HoursToString renders a deadline given in hours
func HoursToString(hours int) string {
	switch {
	case hours > 47:
		return fmt.Sprintf("within %d days", hours/24)
	case hours > 1:
		return fmt.Sprintf("within %d hours", hours)
	}
	return "as soon as possible"
}

// DaysToString renders the days left before a payment expires
func DaysToString(days int) string {
	switch {
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	case days == 1:
		return "tomorrow"
	}
	return "today"
}

// NoUsernameNotice asks the listed members to set a username within hours
func NoUsernameNotice(c chat.Chat, members chat.MemberList, hours int, contacts Contacts) string {
	if len(members) == 0 {
		return fmt.Sprintf("All members of %s have a username.", chatTitle(c))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Members of %s without a username: %d\n%s\n\n", chatTitle(c), len(members), members.String())
	fmt.Fprintf(&b, "Please set a username %s, otherwise you will be removed from the group.", HoursToString(hours))
	b.WriteString(contacts.supportLine())
	return b.String()
}

// ExpiringPaymentNotice reminds the listed members to renew. lastDay is the day of
// the month payments are due, outside 1-31 a generic deadline is used.
func ExpiringPaymentNotice(c chat.Chat, members chat.MemberList, days, lastDay int, contacts Contacts) string {
	if len(members) == 0 {
		return fmt.Sprintf("All members of %s have a valid payment.", chatTitle(c))
	}
	deadline := "within a few days"
	if lastDay >= 1 && lastDay <= 31 {
		deadline = fmt.Sprintf("by day %d of the month", lastDay)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Members of %s whose payment expires %s: %d\n%s\n\n", chatTitle(c), DaysToString(days), len(members), members.String())
	fmt.Fprintf(&b, "Please renew your payment %s, otherwise you will be removed from the group.", deadline)
	if contacts.PaymentWebsite != "" {
		fmt.Fprintf(&b, "\n\nYou can pay at %s.", contacts.PaymentWebsite)
	}
	b.WriteString(contacts.supportLine())
	return b.String()
}
