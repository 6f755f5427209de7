// Package sync keeps the local status cache, the offline outbox and the
// portal notification list in step with each other.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/univ-portal/portal-inbox/internal/dedup"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/hooks"
	"github.com/univ-portal/portal-inbox/internal/logging"
	"github.com/univ-portal/portal-inbox/internal/portal"
	"github.com/univ-portal/portal-inbox/internal/search"
	"github.com/univ-portal/portal-inbox/internal/settings"
	"github.com/univ-portal/portal-inbox/internal/statuscache"
	"github.com/univ-portal/portal-inbox/internal/storage"
)

var (
	// ErrBusy is returned when another refresh or flush is in flight.
	ErrBusy = errors.New("sync already in progress")
	// ErrNoUser is returned when the session has no user id.
	ErrNoUser = errors.New("no authenticated user")
)

// Portal is the subset of the portal API the orchestrator drives.
type Portal interface {
	ListRequests(ctx context.Context, userID string) ([]domain.ChangeRequest, error)
	ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	CreateNotification(ctx context.Context, in portal.CreateNotificationInput) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
	DeleteAllRead(ctx context.Context, userID string) error
}

// PreferenceSource provides the user's notification preferences.
type PreferenceSource interface {
	Load(ctx context.Context) (settings.Preferences, error)
}

// HookRunner runs lifecycle hooks.
type HookRunner interface {
	Run(ctx context.Context, event string, env map[string]string) error
}

// Session identifies the user the orchestrator acts for.
type Session struct {
	UserID string
	Token  string
}

// Options configures an Orchestrator. Portal and Store are required.
type Options struct {
	Session     Session
	Portal      Portal
	Store       storage.DocumentStore
	Cache       *statuscache.Cache
	Preferences PreferenceSource
	Grouper     domain.Grouper
	Dedup       dedup.Options
	Hooks       HookRunner
	Logger      logging.Logger
	// MaxAttempts drops queued entries after that many failed deliveries.
	// Zero keeps them until they succeed.
	MaxAttempts int
	// CacheTTL prunes status entries for requests no longer returned by
	// the portal once they have not changed within the duration. Zero
	// disables pruning.
	CacheTTL time.Duration
	// LockDir, when set, is a lock directory taken around request
	// refreshes and queue flushes so separate processes sharing the same
	// state do not interleave.
	LockDir string
	Now      func() time.Time

	OnView     func(View)
	OnRequests func(RequestsResult)
	OnFlush    func(FlushResult)
	OnError    func(error)
}

// Orchestrator runs refresh and flush operations. Those operations are
// mutually exclusive; a call made while one is running returns ErrBusy.
type Orchestrator struct {
	mu      gosync.Mutex
	lockDir string

	session     Session
	portal      Portal
	store       storage.DocumentStore
	cache       *statuscache.Cache
	prefs       PreferenceSource
	grouper     domain.Grouper
	dedup       dedup.Options
	hooks       HookRunner
	log         logging.Logger
	maxAttempts int
	cacheTTL    time.Duration
	now         func() time.Time

	onView     func(View)
	onRequests func(RequestsResult)
	onFlush    func(FlushResult)
	onError    func(error)

	triggerCh   chan struct{}
	reconnectCh chan struct{}
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Portal == nil {
		panic("sync.New: portal client must not be nil")
	}
	if opts.Store == nil {
		panic("sync.New: document store must not be nil")
	}
	o := &Orchestrator{
		session:     opts.Session,
		portal:      opts.Portal,
		store:       opts.Store,
		cache:       opts.Cache,
		prefs:       opts.Preferences,
		grouper:     opts.Grouper,
		dedup:       opts.Dedup,
		hooks:       opts.Hooks,
		log:         opts.Logger,
		maxAttempts: opts.MaxAttempts,
		cacheTTL:    opts.CacheTTL,
		lockDir:     opts.LockDir,
		now:         opts.Now,
		onView:      opts.OnView,
		onRequests:  opts.OnRequests,
		onFlush:     opts.OnFlush,
		onError:     opts.OnError,
		triggerCh:   make(chan struct{}, 1),
		reconnectCh: make(chan struct{}, 1),
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.cache == nil {
		o.cache = statuscache.New(o.store, statuscache.WithClock(o.now))
	}
	if o.prefs == nil {
		o.prefs = settings.NewStore(o.store)
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	o.log = o.log.With("component", "sync", "user_id", o.session.UserID)
	return o
}

func (o *Orchestrator) userID() (string, error) {
	if o.session.UserID == "" {
		return "", ErrNoUser
	}
	return o.session.UserID, nil
}

// exclusive takes the in-process guard and, when configured, the shared
// lock directory.
func (o *Orchestrator) exclusive(ctx context.Context) (func(), error) {
	if !o.mu.TryLock() {
		return nil, ErrBusy
	}
	if o.lockDir == "" {
		return o.mu.Unlock, nil
	}
	lock := storage.NewLock(o.lockDir)
	if err := lock.Acquire(ctx); err != nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	return func() {
		if err := lock.Release(); err != nil {
			o.log.Warn("release sync lock", "dir", o.lockDir, "error", err)
		}
		o.mu.Unlock()
	}, nil
}

func (o *Orchestrator) runHook(ctx context.Context, event string, env map[string]string) {
	if o.hooks == nil {
		return
	}
	if err := o.hooks.Run(ctx, event, env); err != nil {
		o.log.Warn("hook failed", "event", event, "error", err)
	}
}

// RequestsResult summarises a request refresh.
type RequestsResult struct {
	Changes   []domain.StatusChange
	Delivered int
	Queued    int
	Pruned    int
}

// RefreshRequests fetches the user's change requests, detects status
// transitions against the cache and creates one notification per
// transition. Notifications that cannot be created are queued for a later
// flush. The cache is written only after every transition has been
// delivered or queued; a transition that could not be queued is left
// uncommitted and is reported again by the next refresh. Only fetch and
// local storage failures are returned.
func (o *Orchestrator) RefreshRequests(ctx context.Context) (RequestsResult, error) {
	release, err := o.exclusive(ctx)
	if err != nil {
		return RequestsResult{}, err
	}
	defer release()

	var res RequestsResult
	userID, err := o.userID()
	if err != nil {
		return res, err
	}
	requests, err := o.portal.ListRequests(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("fetch requests: %w", err)
	}

	plan, err := o.cache.Plan(ctx, requests)
	if err != nil {
		return res, err
	}

	var queueErr error
	for _, change := range plan.Changes {
		if queueErr != nil {
			plan.Revert(change.Request.ID)
			continue
		}
		o.log.Info("request status changed",
			"request_id", change.Request.ID,
			"old_status", change.OldStatus,
			"new_status", change.NewStatus)

		payload := Payload(change, userID)
		if err := o.portal.CreateNotification(ctx, payload); err != nil {
			size, qerr := o.enqueue(ctx, payload, err)
			if qerr != nil {
				queueErr = qerr
				plan.Revert(change.Request.ID)
				o.log.Error("queue notification", "request_id", change.Request.ID, "error", qerr)
				continue
			}
			res.Changes = append(res.Changes, change)
			res.Queued++
			o.log.Warn("notification queued", "request_id", change.Request.ID, "queue_size", size, "error", err)
			o.statusChangeHook(ctx, change)
			o.runHook(ctx, hooks.EventNotificationQueued, map[string]string{
				"REQUEST_ID":         change.Request.ID,
				"NOTIFICATION_TITLE": payload.Title,
				"QUEUE_LENGTH":       fmt.Sprint(size),
				"ERROR":              err.Error(),
			})
			continue
		}
		res.Changes = append(res.Changes, change)
		res.Delivered++
		o.statusChangeHook(ctx, change)
	}

	res.Pruned = plan.PruneAbsent(o.cacheTTL)
	if err := plan.Commit(ctx); err != nil {
		return res, errors.Join(queueErr, err)
	}
	return res, queueErr
}

func (o *Orchestrator) statusChangeHook(ctx context.Context, change domain.StatusChange) {
	o.runHook(ctx, hooks.EventStatusChange, map[string]string{
		"REQUEST_ID":   change.Request.ID,
		"REQUEST_TYPE": change.Request.Type,
		"OLD_STATUS":   change.OldStatus,
		"NEW_STATUS":   change.NewStatus,
	})
}

// View is the notification list prepared for display.
type View struct {
	Items     []domain.DisplayItem
	Strategy  domain.GroupingStrategy
	Total     int
	Unread    int
	FetchedAt time.Time
}

// ViewOptions overrides the stored display preferences for one refresh.
type ViewOptions struct {
	// Grouping replaces the preferred strategy when set.
	Grouping domain.GroupingStrategy
	// ReadFilter is "read", "unread" or empty.
	ReadFilter string
	// Search keeps only records matching the query.
	Search string
	// SearchMode names the search provider: substring (default), regex or token.
	SearchMode string
}

// RefreshNotifications fetches, deduplicates, filters and groups the
// user's notifications using the stored preferences.
func (o *Orchestrator) RefreshNotifications(ctx context.Context) (View, error) {
	return o.RefreshNotificationsWith(ctx, ViewOptions{})
}

// RefreshNotificationsWith is RefreshNotifications with per-call overrides.
// Total and Unread count the records left after type filtering, before the
// read filter is applied.
func (o *Orchestrator) RefreshNotificationsWith(ctx context.Context, vo ViewOptions) (View, error) {
	if vo.Grouping != "" && !vo.Grouping.IsValid() {
		return View{}, fmt.Errorf("invalid grouping strategy: %s", vo.Grouping)
	}
	readFilter := domain.Filter{ReadFilter: vo.ReadFilter}
	if err := readFilter.Validate(); err != nil {
		return View{}, err
	}
	finder, err := search.New(vo.SearchMode)
	if err != nil {
		return View{}, err
	}
	if rp, ok := finder.(*search.RegexProvider); ok && vo.Search != "" {
		if _, err := rp.Compile(vo.Search); err != nil {
			return View{}, fmt.Errorf("invalid search pattern: %w", err)
		}
	}

	if !o.mu.TryLock() {
		return View{}, ErrBusy
	}
	defer o.mu.Unlock()

	userID, err := o.userID()
	if err != nil {
		return View{}, err
	}
	records, err := o.portal.ListNotifications(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("fetch notifications: %w", err)
	}

	prefs, err := o.prefs.Load(ctx)
	if err != nil {
		o.log.Warn("using default preferences", "error", err)
	}
	strategy := prefs.Grouping
	if vo.Grouping != "" {
		strategy = vo.Grouping
	}

	records = dedup.Unique(records, o.dedup)
	records = domain.Filter{Hidden: prefs.Hidden()}.Apply(records)
	view := View{
		Strategy:  strategy,
		Total:     len(records),
		Unread:    domain.CountUnread(records),
		FetchedAt: o.now(),
	}
	shown := search.Filter(finder, readFilter.Apply(records), vo.Search)
	view.Items = o.grouper.Group(shown, strategy)
	o.log.Debug("notifications refreshed", "total", view.Total, "unread", view.Unread, "items", len(view.Items))
	return view, nil
}

// FlushResult summarises an offline queue flush.
type FlushResult struct {
	Delivered int
	Failed    int
	Dropped   int
	Remaining int
}

// FlushOfflineQueue replays queued notifications in enqueue order. Entries
// that fail stay queued in their original relative order. An
// authentication failure stops the flush and is returned.
func (o *Orchestrator) FlushOfflineQueue(ctx context.Context) (FlushResult, error) {
	release, err := o.exclusive(ctx)
	if err != nil {
		return FlushResult{}, err
	}
	defer release()

	var res FlushResult
	entries, err := o.loadQueue(ctx)
	if err != nil {
		return res, err
	}
	if len(entries) == 0 {
		return res, nil
	}

	var (
		remaining []QueueEntry
		authErr   error
	)
	for i, entry := range entries {
		if ctx.Err() != nil {
			remaining = append(remaining, entries[i:]...)
			break
		}
		err := o.portal.CreateNotification(ctx, entry.Payload)
		if err == nil {
			res.Delivered++
			continue
		}
		entry.Attempts++
		entry.LastError = err.Error()
		if portal.IsAuthError(err) {
			authErr = err
			remaining = append(remaining, entry)
			remaining = append(remaining, entries[i+1:]...)
			break
		}
		if o.maxAttempts > 0 && entry.Attempts >= o.maxAttempts {
			res.Dropped++
			o.log.Warn("dropping queued notification", "entry_id", entry.ID.String(), "attempts", entry.Attempts, "error", err)
			continue
		}
		res.Failed++
		remaining = append(remaining, entry)
	}

	if err := o.saveQueue(ctx, remaining); err != nil {
		return res, err
	}
	res.Remaining = len(remaining)
	o.log.Info("offline queue flushed",
		"delivered", res.Delivered,
		"failed", res.Failed,
		"dropped", res.Dropped,
		"remaining", res.Remaining)
	o.runHook(ctx, hooks.EventQueueFlushed, map[string]string{
		"DELIVERED": fmt.Sprint(res.Delivered),
		"FAILED":    fmt.Sprint(res.Failed),
		"DROPPED":   fmt.Sprint(res.Dropped),
		"REMAINING": fmt.Sprint(res.Remaining),
	})
	if authErr != nil {
		return res, fmt.Errorf("flush offline queue: %w", authErr)
	}
	return res, nil
}

// MarkRead marks one notification as read.
func (o *Orchestrator) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("notification id cannot be empty")
	}
	return o.portal.MarkRead(ctx, id)
}

// MarkAllRead marks every notification of the session user as read.
func (o *Orchestrator) MarkAllRead(ctx context.Context) error {
	userID, err := o.userID()
	if err != nil {
		return err
	}
	return o.portal.MarkAllRead(ctx, userID)
}

// Delete removes one notification.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("notification id cannot be empty")
	}
	return o.portal.Delete(ctx, id)
}

// DeleteAllRead removes every read notification of the session user.
func (o *Orchestrator) DeleteAllRead(ctx context.Context) error {
	userID, err := o.userID()
	if err != nil {
		return err
	}
	return o.portal.DeleteAllRead(ctx, userID)
}
