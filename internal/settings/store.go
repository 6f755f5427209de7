package settings

import (
	"context"
	"fmt"

	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/storage"
)

// Mirror receives a copy of saved preferences.
type Mirror interface {
	UpdatePreferences(ctx context.Context, userID string, prefs any) error
}

// Store loads and saves the preference document.
type Store struct {
	docs     storage.DocumentStore
	grouping domain.GroupingStrategy
	mirror   Mirror
	userID   string
}

// Option customizes a Store.
type Option func(*Store)

// WithDefaultGrouping sets the grouping used when none is stored.
func WithDefaultGrouping(g domain.GroupingStrategy) Option {
	return func(s *Store) {
		if g.IsValid() {
			s.grouping = g
		}
	}
}

// WithMirror mirrors every save to m on behalf of userID.
func WithMirror(m Mirror, userID string) Option {
	return func(s *Store) {
		s.mirror = m
		s.userID = userID
	}
}

// NewStore creates a preference store backed by docs.
func NewStore(docs storage.DocumentStore, opts ...Option) *Store {
	s := &Store{docs: docs, grouping: domain.GroupNone}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the stored preferences, or defaults when none are stored.
func (s *Store) Load(ctx context.Context) (Preferences, error) {
	var p Preferences
	found, err := storage.Load(ctx, s.docs, storage.KeyPreferences, &p)
	if err != nil {
		return Default(s.grouping), fmt.Errorf("preferences: %w", err)
	}
	if !found {
		return Default(s.grouping), nil
	}
	p.normalize(s.grouping)
	return p, nil
}

// Save validates and stores p as a whole document, then mirrors it to the
// portal. Mirror failures are logged and otherwise ignored.
func (s *Store) Save(ctx context.Context, p Preferences) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.normalize(s.grouping)
	if err := storage.Save(ctx, s.docs, storage.KeyPreferences, p); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	if s.mirror != nil && s.userID != "" {
		if err := s.mirror.UpdatePreferences(ctx, s.userID, p); err != nil {
			colors.Debug(fmt.Sprintf("preferences mirror failed: %v", err))
		}
	}
	return nil
}
