package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/dedupconfig"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/errors"
	"github.com/univ-portal/portal-inbox/internal/hooks"
	"github.com/univ-portal/portal-inbox/internal/logging"
	"github.com/univ-portal/portal-inbox/internal/portal"
	"github.com/univ-portal/portal-inbox/internal/settings"
	"github.com/univ-portal/portal-inbox/internal/statuscache"
	"github.com/univ-portal/portal-inbox/internal/storage"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

var errNoUser = errors.WithHint(inboxsync.ErrNoUser,
	"Set PORTAL_INBOX_USER_ID, or use a token whose subject is the user id.")

// app builds the collaborators on first use, after the root command has
// loaded the configuration.
type app struct {
	once gosync.Once
	err  error

	store   storage.DocumentStore
	client  *portal.Client
	session inboxsync.Session
	prefs   *settings.Store
	cache   *statuscache.Cache
	orch    *inboxsync.Orchestrator
	lockDir string
}

var defaultApp = &app{}

func (a *app) init() error {
	a.once.Do(func() { a.err = a.build() })
	return a.err
}

func (a *app) build() error {
	store, err := storage.NewFromConfig()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	token := config.Get("api_token", "")
	a.client = portal.NewClient(portal.Options{
		BaseURL: config.Get("api_base_url", ""),
		Token:   token,
		Timeout: config.GetDuration("request_timeout", 30*time.Second),
	})

	userID := config.Get("user_id", "")
	if userID == "" {
		userID = a.client.Subject()
	}
	a.session = inboxsync.Session{UserID: userID, Token: token}

	grouping, err := domain.ParseGroupingStrategy(config.Get("grouping_default", string(domain.GroupNone)))
	if err != nil {
		grouping = domain.GroupNone
	}
	prefOpts := []settings.Option{settings.WithDefaultGrouping(grouping)}
	if config.GetBool("preferences_mirror", true) {
		prefOpts = append(prefOpts, settings.WithMirror(a.client, userID))
	}
	a.prefs = settings.NewStore(store, prefOpts...)
	a.cache = statuscache.New(store)
	a.lockDir = syncLockDir()
	a.orch = a.newOrchestrator(nil)
	return nil
}

// newOrchestrator builds an orchestrator over the shared collaborators.
// mutate may install poll callbacks.
func (a *app) newOrchestrator(mutate func(*inboxsync.Options)) *inboxsync.Orchestrator {
	opts := inboxsync.Options{
		Session:     a.session,
		Portal:      a.client,
		Store:       a.store,
		Cache:       a.cache,
		Preferences: a.prefs,
		Dedup:       dedupconfig.Load(),
		Hooks:       hooks.NewFromConfig(),
		Logger:      logging.GetGlobal(),
		MaxAttempts: config.GetInt("offline_max_attempts", 0),
		CacheTTL:    config.GetDuration("status_cache_ttl", 0),
		LockDir:     a.lockDir,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return inboxsync.New(opts)
}

// syncLockDir returns the lock directory shared by every process using the
// same state directory, or "" when the state directory is unusable.
func syncLockDir() string {
	stateDir := config.Get("state_dir", "")
	if stateDir == "" {
		return ""
	}
	if err := os.MkdirAll(stateDir, storage.FileModeDir); err != nil {
		logging.GetGlobal().Warn("sync lock disabled", "state_dir", stateDir, "error", err)
		return ""
	}
	return filepath.Join(stateDir, "sync.lock")
}

func (a *app) orchestrator() (*inboxsync.Orchestrator, error) {
	if err := a.init(); err != nil {
		return nil, err
	}
	return a.orch, nil
}

// wrap attaches recovery hints to errors surfaced by commands.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, inboxsync.ErrNoUser):
		return errNoUser
	case stderrors.Is(err, inboxsync.ErrBusy):
		return errors.WithHint(err, "Another sync is running; try again in a moment.")
	case portal.IsTransient(err):
		return errors.WithHint(err, "The portal is unreachable. Pending notifications stay queued; run 'portal-inbox flush' later.")
	default:
		return err
	}
}

// appClient forwards command calls to the lazily built app.
type appClient struct {
	app *app
}

var defaultClient = &appClient{app: defaultApp}

func (c *appClient) RefreshRequests(ctx context.Context) (inboxsync.RequestsResult, error) {
	o, err := c.app.orchestrator()
	if err != nil {
		return inboxsync.RequestsResult{}, err
	}
	res, err := o.RefreshRequests(ctx)
	return res, wrap(err)
}

func (c *appClient) RefreshNotificationsWith(ctx context.Context, vo inboxsync.ViewOptions) (inboxsync.View, error) {
	o, err := c.app.orchestrator()
	if err != nil {
		return inboxsync.View{}, err
	}
	v, err := o.RefreshNotificationsWith(ctx, vo)
	return v, wrap(err)
}

func (c *appClient) FlushOfflineQueue(ctx context.Context) (inboxsync.FlushResult, error) {
	o, err := c.app.orchestrator()
	if err != nil {
		return inboxsync.FlushResult{}, err
	}
	res, err := o.FlushOfflineQueue(ctx)
	return res, wrap(err)
}

func (c *appClient) QueuedEntries(ctx context.Context) ([]inboxsync.QueueEntry, error) {
	o, err := c.app.orchestrator()
	if err != nil {
		return nil, err
	}
	return o.QueuedEntries(ctx)
}

func (c *appClient) MarkRead(ctx context.Context, id string) error {
	o, err := c.app.orchestrator()
	if err != nil {
		return err
	}
	return wrap(o.MarkRead(ctx, id))
}

func (c *appClient) MarkAllRead(ctx context.Context) error {
	o, err := c.app.orchestrator()
	if err != nil {
		return err
	}
	return wrap(o.MarkAllRead(ctx))
}

func (c *appClient) Delete(ctx context.Context, id string) error {
	o, err := c.app.orchestrator()
	if err != nil {
		return err
	}
	return wrap(o.Delete(ctx, id))
}

func (c *appClient) DeleteAllRead(ctx context.Context) error {
	o, err := c.app.orchestrator()
	if err != nil {
		return err
	}
	return wrap(o.DeleteAllRead(ctx))
}

func (c *appClient) LoadPreferences(ctx context.Context) (settings.Preferences, error) {
	if err := c.app.init(); err != nil {
		return settings.Preferences{}, err
	}
	return c.app.prefs.Load(ctx)
}

func (c *appClient) SavePreferences(ctx context.Context, p settings.Preferences) error {
	if err := c.app.init(); err != nil {
		return err
	}
	return c.app.prefs.Save(ctx, p)
}

func (c *appClient) CacheEntries(ctx context.Context) ([]statuscache.IDEntry, error) {
	if err := c.app.init(); err != nil {
		return nil, err
	}
	return c.app.cache.Entries(ctx)
}

func (c *appClient) PruneCache(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := c.app.init(); err != nil {
		return 0, err
	}
	return c.app.cache.Prune(ctx, olderThan)
}

func (c *appClient) ResetCache(ctx context.Context) error {
	if err := c.app.init(); err != nil {
		return err
	}
	return c.app.cache.Reset(ctx)
}

// Poller builds an orchestrator whose poll loop reports through h.
func (c *appClient) Poller(h PollHandlers) (poller, error) {
	if err := c.app.init(); err != nil {
		return nil, err
	}
	return c.app.newOrchestrator(func(opts *inboxsync.Options) {
		opts.OnView = h.OnView
		opts.OnRequests = h.OnRequests
		opts.OnFlush = h.OnFlush
		opts.OnError = h.OnError
	}), nil
}

// PollHandlers receives poll loop results.
type PollHandlers struct {
	OnView     func(inboxsync.View)
	OnRequests func(inboxsync.RequestsResult)
	OnFlush    func(inboxsync.FlushResult)
	OnError    func(error)
}

// poller is a running sync loop.
type poller interface {
	Run(ctx context.Context, interval time.Duration) error
	Reconnect()
	RefreshNotifications(ctx context.Context) (inboxsync.View, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}
