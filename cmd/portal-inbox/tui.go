package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/config"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
	"github.com/univ-portal/portal-inbox/internal/tui"
)

// NewTUICmd creates the tui command with explicit dependencies.
func NewTUICmd(client pollerClient) *cobra.Command {
	if client == nil {
		panic("NewTUICmd: client dependency cannot be nil")
	}

	var interval time.Duration
	c := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive inbox",
		Long: `Open the interactive inbox. The portal is polled in the background while
the inbox is open.

USAGE:
    portal-inbox tui [OPTIONS]

OPTIONS:
    --interval <d>   Poll interval (default: poll_interval)
    -h, --help       Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if !c.Flags().Changed("interval") {
				interval = config.GetDuration("poll_interval", inboxsync.DefaultPollInterval)
			}
			return runTUI(c.Context(), client, interval)
		},
	}
	c.Flags().DurationVar(&interval, "interval", inboxsync.DefaultPollInterval, "Poll interval")
	return c
}

func runTUI(ctx context.Context, client pollerClient, interval time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var prog *tea.Program
	send := func(msg tea.Msg) {
		if prog != nil {
			prog.Send(msg)
		}
	}
	p, err := client.Poller(PollHandlers{
		OnView:  func(v inboxsync.View) { send(tui.ViewLoaded(v)) },
		OnError: func(err error) { send(tui.SyncFailed(err)) },
	})
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	// Console output would corrupt the alternate screen.
	colors.SetOutput(io.Discard, io.Discard)
	defer colors.SetOutput(nil, nil)

	prog = tui.NewProgram(ctx, p, tea.WithAltScreen(), tea.WithContext(ctx))
	go func() {
		_ = p.Run(ctx, interval)
	}()
	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

var tuiCmd = NewTUICmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(tuiCmd)
}
