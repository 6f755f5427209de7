package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/render"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

type pollerClient interface {
	Poller(h PollHandlers) (poller, error)
}

// NewWatchCmd creates the watch command with explicit dependencies.
func NewWatchCmd(client pollerClient) *cobra.Command {
	if client == nil {
		panic("NewWatchCmd: client dependency cannot be nil")
	}

	var interval time.Duration
	c := &cobra.Command{
		Use:   "watch",
		Short: "Poll the portal and report changes",
		Long: `Poll the portal until interrupted. Every cycle checks requests for status
changes and refreshes the notification summary. The offline queue is flushed
once the portal is reachable again, or immediately on SIGHUP.

USAGE:
    portal-inbox watch [OPTIONS]

OPTIONS:
    --interval <d>   Poll interval (default: poll_interval)
    -h, --help       Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if !c.Flags().Changed("interval") {
				interval = config.GetDuration("poll_interval", inboxsync.DefaultPollInterval)
			}
			return Watch(c.Context(), WatchOptions{
				Client:   client,
				Interval: interval,
				Output:   c.OutOrStdout(),
			})
		},
	}
	c.Flags().DurationVar(&interval, "interval", inboxsync.DefaultPollInterval, "Poll interval")
	return c
}

// WatchOptions holds all parameters for watching the portal.
type WatchOptions struct {
	Client   pollerClient
	Interval time.Duration
	Output   io.Writer // default os.Stdout
}

// Watch runs the poll loop until ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	w := opts.Output
	lastSummary := ""

	p, err := opts.Client.Poller(PollHandlers{
		OnRequests: func(res inboxsync.RequestsResult) {
			if len(res.Changes) > 0 {
				printRequestsResult(w, res)
			}
		},
		OnView: func(v inboxsync.View) {
			summary := render.Summary(v.Total, v.Unread, v.Strategy)
			if summary != lastSummary {
				fmt.Fprintf(w, "[%s] %s\n", v.FetchedAt.Local().Format(time.TimeOnly), summary)
				lastSummary = summary
			}
		},
		OnFlush: printFlushResult,
		OnError: func(err error) {
			colors.Warning(fmt.Sprintf("poll failed: %v", wrap(err)))
		},
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				p.Reconnect()
			}
		}
	}()

	colors.Info("Watching the portal (Ctrl+C to stop)...")
	if err := p.Run(ctx, opts.Interval); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

var watchCmd = NewWatchCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(watchCmd)
}
