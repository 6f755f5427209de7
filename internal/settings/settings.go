// Package settings persists the user's notification preferences.
package settings

import (
	"fmt"
	"strings"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// Preferences is the preference document stored under the
// notificationPreferences key and mirrored to the portal.
type Preferences struct {
	// Types toggles each notification type. Missing types are enabled.
	Types map[domain.NotificationType]bool `json:"types"`
	// Email mirrors the portal's "also send by email" toggle.
	Email    bool                    `json:"email"`
	Grouping domain.GroupingStrategy `json:"grouping"`
}

// Default returns preferences with every type enabled.
func Default(grouping domain.GroupingStrategy) Preferences {
	if !grouping.IsValid() {
		grouping = domain.GroupNone
	}
	types := make(map[domain.NotificationType]bool, len(domain.KnownTypes))
	for _, t := range domain.KnownTypes {
		types[t] = true
	}
	return Preferences{Types: types, Email: true, Grouping: grouping}
}

// Enabled reports whether notifications of type t should be shown. Types
// the portal did not define are always shown.
func (p Preferences) Enabled(t domain.NotificationType) bool {
	if !t.IsValid() {
		return true
	}
	enabled, ok := p.Types[t]
	return !ok || enabled
}

// Hidden returns the disabled types, for domain.Filter.
func (p Preferences) Hidden() map[domain.NotificationType]bool {
	hidden := make(map[domain.NotificationType]bool)
	for _, t := range domain.KnownTypes {
		if !p.Enabled(t) {
			hidden[t] = true
		}
	}
	return hidden
}

// SetType enables or disables a known type.
func (p *Preferences) SetType(name string, enabled bool) error {
	t, err := domain.ParseNotificationType(name)
	if err != nil {
		return err
	}
	if p.Types == nil {
		p.Types = make(map[domain.NotificationType]bool)
	}
	p.Types[t] = enabled
	return nil
}

// Validate checks the grouping strategy and type keys.
func (p Preferences) Validate() error {
	if !p.Grouping.IsValid() {
		return fmt.Errorf("invalid grouping value: %s", p.Grouping)
	}
	for t := range p.Types {
		if !t.IsValid() {
			return fmt.Errorf("invalid notification type: %s", t)
		}
	}
	return nil
}

// normalize fills gaps left by older or hand-edited documents.
func (p *Preferences) normalize(fallback domain.GroupingStrategy) {
	p.Grouping = domain.GroupingStrategy(strings.ToLower(strings.TrimSpace(string(p.Grouping))))
	if !p.Grouping.IsValid() {
		p.Grouping = fallback
	}
	if p.Types == nil {
		p.Types = make(map[domain.NotificationType]bool)
	}
	for t := range p.Types {
		if !t.IsValid() {
			delete(p.Types, t)
		}
	}
	for _, t := range domain.KnownTypes {
		if _, ok := p.Types[t]; !ok {
			p.Types[t] = true
		}
	}
}
