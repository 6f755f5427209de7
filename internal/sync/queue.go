package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/univ-portal/portal-inbox/internal/portal"
	"github.com/univ-portal/portal-inbox/internal/storage"
)

// QueueEntry is a notification that could not be created yet. Entries are
// kept in enqueue order and replayed by FlushOfflineQueue.
type QueueEntry struct {
	ID         uuid.UUID                      `json:"id"`
	Payload    portal.CreateNotificationInput `json:"payload"`
	EnqueuedAt time.Time                      `json:"enqueuedAt"`
	Attempts   int                            `json:"attempts"`
	LastError  string                         `json:"lastError,omitempty"`
}

func (o *Orchestrator) loadQueue(ctx context.Context) ([]QueueEntry, error) {
	var entries []QueueEntry
	if _, err := storage.Load(ctx, o.store, storage.KeyOfflineQueue, &entries); err != nil {
		return nil, fmt.Errorf("offline queue: %w", err)
	}
	return entries, nil
}

func (o *Orchestrator) saveQueue(ctx context.Context, entries []QueueEntry) error {
	if entries == nil {
		entries = []QueueEntry{}
	}
	if err := storage.Save(ctx, o.store, storage.KeyOfflineQueue, entries); err != nil {
		return fmt.Errorf("offline queue: %w", err)
	}
	return nil
}

// enqueue appends payload to the durable queue and returns the new length.
func (o *Orchestrator) enqueue(ctx context.Context, payload portal.CreateNotificationInput, cause error) (int, error) {
	entries, err := o.loadQueue(ctx)
	if err != nil {
		return 0, err
	}
	entries = append(entries, QueueEntry{
		ID:         uuid.New(),
		Payload:    payload,
		EnqueuedAt: o.now(),
		Attempts:   1,
		LastError:  cause.Error(),
	})
	if err := o.saveQueue(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// QueuedEntries returns the pending outbox in replay order.
func (o *Orchestrator) QueuedEntries(ctx context.Context) ([]QueueEntry, error) {
	return o.loadQueue(ctx)
}
