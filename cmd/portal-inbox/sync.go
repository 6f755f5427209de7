package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

type syncClient interface {
	RefreshRequests(ctx context.Context) (inboxsync.RequestsResult, error)
}

// NewSyncCmd creates the sync command with explicit dependencies.
func NewSyncCmd(client syncClient) *cobra.Command {
	if client == nil {
		panic("NewSyncCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "sync",
		Short: "Check requests for status changes and notify",
		Long: `Fetch your change requests, compare them with the last known statuses
and create a notification for every status change. Notifications that cannot
be delivered are queued locally.

USAGE:
    portal-inbox sync

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			res, err := client.RefreshRequests(c.Context())
			if err != nil {
				return fmt.Errorf("sync: %w", err)
			}
			printRequestsResult(c.OutOrStdout(), res)
			return nil
		},
	}
}

func printRequestsResult(w io.Writer, res inboxsync.RequestsResult) {
	for _, ch := range res.Changes {
		msg := inboxsync.MessageFor(ch)
		fmt.Fprintf(w, "%s: %s -> %s  %s\n", ch.Request.ID, ch.OldStatus, ch.NewStatus, msg.Title)
	}
	if len(res.Changes) == 0 {
		colors.Info("No status changes")
		return
	}
	summary := fmt.Sprintf("%d change(s): %d delivered, %d queued", len(res.Changes), res.Delivered, res.Queued)
	if res.Queued > 0 {
		colors.Warning(summary)
		return
	}
	colors.Success(summary)
}

var syncCmd = NewSyncCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(syncCmd)
}
