package domain

import "fmt"

// Read filter constants.
const (
	ReadFilterRead   = "read"
	ReadFilterUnread = "unread"
)

// Filter selects notifications before they are grouped.
type Filter struct {
	// Hidden types are dropped. Unknown types are never hidden.
	Hidden     map[NotificationType]bool
	ReadFilter string // "read", "unread", or "" (no filter)
}

// Validate checks the read filter value.
func (f Filter) Validate() error {
	switch f.ReadFilter {
	case "", ReadFilterRead, ReadFilterUnread:
		return nil
	default:
		return fmt.Errorf("invalid read filter: %s", f.ReadFilter)
	}
}

// Matches reports whether n passes the filter.
func (f Filter) Matches(n Notification) bool {
	if n.Type.IsValid() && f.Hidden[n.Type] {
		return false
	}
	switch f.ReadFilter {
	case ReadFilterRead:
		if !n.IsRead {
			return false
		}
	case ReadFilterUnread:
		if n.IsRead {
			return false
		}
	}
	return true
}

// Apply returns the records matching f, in input order.
func (f Filter) Apply(records []Notification) []Notification {
	out := make([]Notification, 0, len(records))
	for _, n := range records {
		if f.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}
