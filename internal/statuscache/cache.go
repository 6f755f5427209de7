// Package statuscache remembers the last observed status of each change
// request and reports transitions between polls.
package statuscache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/storage"
)

// Entry is the cached state of one request.
type Entry struct {
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Cache persists entries as a single document keyed by request id.
//
// Entries for requests that disappear from later snapshots are kept until
// Prune or Plan.PruneAbsent removes them.
type Cache struct {
	store storage.DocumentStore
	key   string
	now   func() time.Time
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the clock used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// New creates a cache stored in store.
func New(store storage.DocumentStore, opts ...Option) *Cache {
	c := &Cache{store: store, key: storage.KeyStatusCache, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) load(ctx context.Context) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if _, err := storage.Load(ctx, c.store, c.key, &entries); err != nil {
		return nil, fmt.Errorf("status cache: %w", err)
	}
	if entries == nil {
		// A stored JSON null decodes to a nil map.
		entries = make(map[string]Entry)
	}
	return entries, nil
}

func (c *Cache) save(ctx context.Context, entries map[string]Entry) error {
	if err := storage.Save(ctx, c.store, c.key, entries); err != nil {
		return fmt.Errorf("status cache: %w", err)
	}
	return nil
}

// Update compares a full snapshot of requests against the cache and returns
// the transitions in snapshot order. A first observation is not a change.
// The whole entry map is written back afterwards.
func (c *Cache) Update(ctx context.Context, requests []domain.ChangeRequest) ([]domain.StatusChange, error) {
	plan, err := c.Plan(ctx, requests)
	if err != nil {
		return nil, err
	}
	if err := plan.Commit(ctx); err != nil {
		return nil, err
	}
	return plan.Changes, nil
}

// Plan is an Update that has not been written yet. Callers deliver the
// changes first, Revert the ones they could not hand off, then Commit.
type Plan struct {
	Changes []domain.StatusChange

	cache    *Cache
	entries  map[string]Entry
	previous map[string]Entry
	seen     map[string]bool
	now      time.Time
}

// Plan diffs requests against the stored entries without saving.
func (c *Cache) Plan(ctx context.Context, requests []domain.ChangeRequest) (*Plan, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	p := &Plan{
		cache:    c,
		entries:  entries,
		previous: make(map[string]Entry),
		seen:     make(map[string]bool, len(requests)),
		now:      c.now(),
	}
	for _, req := range requests {
		p.seen[req.ID] = true
		entry, ok := entries[req.ID]
		if !ok {
			entries[req.ID] = Entry{Status: req.Status, Type: req.Type, LastUpdated: p.now}
			continue
		}
		if entry.Status == req.Status {
			continue
		}
		p.Changes = append(p.Changes, domain.StatusChange{
			Request:   req,
			OldStatus: entry.Status,
			NewStatus: req.Status,
		})
		p.previous[req.ID] = entry
		entry.Status = req.Status
		entry.Type = req.Type
		entry.LastUpdated = p.now
		entries[req.ID] = entry
	}
	return p, nil
}

// Revert keeps the stored entry for id, so the transition is reported
// again by the next Update.
func (p *Plan) Revert(id string) {
	if prev, ok := p.previous[id]; ok {
		p.entries[id] = prev
		delete(p.previous, id)
	}
}

// PruneAbsent drops entries missing from the planned snapshot whose
// LastUpdated is older than olderThan. Requests still in the snapshot are
// never pruned.
func (p *Plan) PruneAbsent(olderThan time.Duration) int {
	if olderThan <= 0 {
		return 0
	}
	cutoff := p.now.Add(-olderThan)
	removed := 0
	for id, e := range p.entries {
		if !p.seen[id] && e.LastUpdated.Before(cutoff) {
			delete(p.entries, id)
			removed++
		}
	}
	return removed
}

// Commit writes the planned entries.
func (p *Plan) Commit(ctx context.Context) error {
	return p.cache.save(ctx, p.entries)
}

// IDEntry pairs an entry with its request id.
type IDEntry struct {
	ID string
	Entry
}

// Entries returns every cached entry ordered by request id.
func (c *Cache) Entries(ctx context.Context) ([]IDEntry, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]IDEntry, 0, len(entries))
	for id, e := range entries {
		out = append(out, IDEntry{ID: id, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Prune removes entries whose LastUpdated is older than olderThan and
// returns how many were removed. A non-positive olderThan is a no-op.
func (c *Cache) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	entries, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := c.now().Add(-olderThan)
	removed := 0
	for id, e := range entries {
		if e.LastUpdated.Before(cutoff) {
			delete(entries, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := c.save(ctx, entries); err != nil {
		return 0, err
	}
	return removed, nil
}

// Reset drops every entry.
func (c *Cache) Reset(ctx context.Context) error {
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("status cache: %w", err)
	}
	return nil
}
