// Package domain holds the portal's notification and change-request model
// together with the grouping rules used to display notifications.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType is the category a notification belongs to.
type NotificationType string

const (
	TypeAdmin    NotificationType = "admin"
	TypeCours    NotificationType = "cours"
	TypeExamen   NotificationType = "examen"
	TypeSchedule NotificationType = "emploi_du_temps"
)

// KnownTypes lists the types the portal produces, in display order.
var KnownTypes = []NotificationType{TypeAdmin, TypeCours, TypeExamen, TypeSchedule}

// IsValid reports whether t is one of the known types.
func (t NotificationType) IsValid() bool {
	switch t {
	case TypeAdmin, TypeCours, TypeExamen, TypeSchedule:
		return true
	default:
		return false
	}
}

// String returns the string representation of the type.
func (t NotificationType) String() string {
	return string(t)
}

// Label returns the display label. Unknown types get "Notification".
func (t NotificationType) Label() string {
	switch t {
	case TypeAdmin:
		return "Administration"
	case TypeCours:
		return "Cours"
	case TypeExamen:
		return "Examens"
	case TypeSchedule:
		return "Emploi du temps"
	default:
		return "Notification"
	}
}

// ParseNotificationType parses s into a known NotificationType.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("invalid notification type: %s", s)
	}
	return t, nil
}

// Notification is a single server-persisted message shown to the user.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Type        NotificationType `json:"type"`
	IsRead      bool             `json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
	ActionLink  string           `json:"actionLink,omitempty"`
	ActionLabel string           `json:"actionLabel,omitempty"`
}

// HasAction reports whether the notification carries a navigation hint.
func (n Notification) HasAction() bool {
	return n.ActionLink != ""
}

// CountUnread returns how many records are not read yet.
func CountUnread(records []Notification) int {
	count := 0
	for _, n := range records {
		if !n.IsRead {
			count++
		}
	}
	return count
}
