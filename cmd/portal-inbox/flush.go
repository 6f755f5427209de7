package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

type flushClient interface {
	FlushOfflineQueue(ctx context.Context) (inboxsync.FlushResult, error)
}

type queueClient interface {
	QueuedEntries(ctx context.Context) ([]inboxsync.QueueEntry, error)
}

// NewFlushCmd creates the flush command with explicit dependencies.
func NewFlushCmd(client flushClient) *cobra.Command {
	if client == nil {
		panic("NewFlushCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "flush",
		Short: "Deliver queued notifications",
		Long: `Retry every queued notification in the order it was queued. Failed
entries stay queued.

USAGE:
    portal-inbox flush

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			res, err := client.FlushOfflineQueue(c.Context())
			printFlushResult(res)
			if err != nil {
				return fmt.Errorf("flush: %w", err)
			}
			return nil
		},
	}
}

func printFlushResult(res inboxsync.FlushResult) {
	if res.Delivered+res.Failed+res.Dropped+res.Remaining == 0 {
		colors.Info("Offline queue is empty")
		return
	}
	summary := fmt.Sprintf("%d delivered, %d failed, %d dropped, %d remaining",
		res.Delivered, res.Failed, res.Dropped, res.Remaining)
	if res.Remaining > 0 || res.Dropped > 0 {
		colors.Warning(summary)
		return
	}
	colors.Success(summary)
}

// NewQueueCmd creates the queue command with explicit dependencies.
func NewQueueCmd(client queueClient) *cobra.Command {
	if client == nil {
		panic("NewQueueCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "queue",
		Short: "Show notifications waiting for delivery",
		Long: `Show the notifications queued while the portal was unreachable, oldest first.

USAGE:
    portal-inbox queue

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			entries, err := client.QueuedEntries(c.Context())
			if err != nil {
				return fmt.Errorf("queue: %w", err)
			}
			if len(entries) == 0 {
				colors.Info("Offline queue is empty")
				return nil
			}
			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUEUED\tATTEMPTS\tTITLE\tLAST ERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					e.ID.String()[:8],
					e.EnqueuedAt.Local().Format(time.DateTime),
					e.Attempts,
					e.Payload.Title,
					e.LastError)
			}
			return w.Flush()
		},
	}
}

var flushCmd = NewFlushCmd(defaultClient)
var queueCmd = NewQueueCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(flushCmd)
	cmd.RootCmd.AddCommand(queueCmd)
}
