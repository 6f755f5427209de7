package sync

import (
	"context"
	"errors"
	"time"

	"github.com/univ-portal/portal-inbox/internal/portal"
)

// DefaultPollInterval is used when Run is given a non-positive interval.
const DefaultPollInterval = 60 * time.Second

// cycleTimeout bounds a single poll cycle.
const cycleTimeout = 2 * time.Minute

// Refresh asks a running poll loop to run a cycle now.
func (o *Orchestrator) Refresh() {
	select {
	case o.triggerCh <- struct{}{}:
	default:
	}
}

// Reconnect signals that connectivity is back. A running poll loop flushes
// the offline queue at the end of an immediate cycle.
func (o *Orchestrator) Reconnect() {
	select {
	case o.reconnectCh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled. Each cycle refreshes requests, then
// notifications. The offline queue is flushed after the first cycle, after Reconnect,
// and on the first successful cycle following a failed one.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	needFlush := o.cycle(ctx, true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			needFlush = o.cycle(ctx, needFlush)
		case <-o.triggerCh:
			needFlush = o.cycle(ctx, needFlush)
		case <-o.reconnectCh:
			needFlush = o.cycle(ctx, true)
		}
	}
}

// cycle runs one poll cycle and reports whether the offline queue still
// needs a flush. The flush only runs once both refreshes succeeded.
func (o *Orchestrator) cycle(parent context.Context, flush bool) bool {
	ctx, cancel := context.WithTimeout(parent, cycleTimeout)
	defer cancel()

	reqs, err := o.RefreshRequests(ctx)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return flush
		}
		o.report(err)
		return true
	}
	if o.onRequests != nil {
		o.onRequests(reqs)
	}

	view, err := o.RefreshNotifications(ctx)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return flush
		}
		o.report(err)
		return true
	}
	if o.onView != nil {
		o.onView(view)
	}

	if !flush {
		return false
	}
	res, err := o.FlushOfflineQueue(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		return true
	case err != nil:
		o.report(err)
		return true
	}
	if o.onFlush != nil && res.Delivered+res.Failed+res.Dropped > 0 {
		o.onFlush(res)
	}
	return false
}

func (o *Orchestrator) report(err error) {
	if portal.IsAuthError(err) {
		o.log.Error("authentication failed", "error", err)
	} else {
		o.log.Warn("poll cycle failed", "error", err)
	}
	if o.onError != nil {
		o.onError(err)
	}
}
