package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/render"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

type listClient interface {
	RefreshNotificationsWith(ctx context.Context, vo inboxsync.ViewOptions) (inboxsync.View, error)
}

// NewListCmd creates the list command with explicit dependencies.
func NewListCmd(client listClient) *cobra.Command {
	if client == nil {
		panic("NewListCmd: client dependency cannot be nil")
	}

	var (
		grouping string
		unread   bool
		read     bool
		expand   bool
		details  bool
		query    string
		mode     string
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Long: `List your notifications, deduplicated, filtered by your type preferences
and grouped with your preferred strategy.

USAGE:
    portal-inbox list [OPTIONS]

OPTIONS:
    --grouping <s>   Override grouping: none, daily, type
    --unread         Only unread notifications
    --read           Only read notifications
    --expand         List the members of every group
    --details        Print content and action links
    --search <q>     Only notifications matching q
    --search-mode <m>  substring (default), regex or token
    -h, --help       Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if read && unread {
				return fmt.Errorf("list: --read and --unread are mutually exclusive")
			}
			vo := inboxsync.ViewOptions{Search: query, SearchMode: mode}
			if grouping != "" {
				g, err := domain.ParseGroupingStrategy(grouping)
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				vo.Grouping = g
			}
			switch {
			case unread:
				vo.ReadFilter = domain.ReadFilterUnread
			case read:
				vo.ReadFilter = domain.ReadFilterRead
			}

			view, err := client.RefreshNotificationsWith(c.Context(), vo)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			out := c.OutOrStdout()
			fmt.Fprintln(out, render.Summary(view.Total, view.Unread, view.Strategy))
			return render.List(out, view.Items, render.ListOptions{
				Now:     view.FetchedAt,
				Expand:  expand,
				Details: details,
			})
		},
	}

	c.Flags().StringVar(&grouping, "grouping", "", "Override grouping: none, daily, type")
	c.Flags().BoolVar(&unread, "unread", false, "Only unread notifications")
	c.Flags().BoolVar(&read, "read", false, "Only read notifications")
	c.Flags().BoolVar(&expand, "expand", false, "List the members of every group")
	c.Flags().BoolVar(&details, "details", false, "Print content and action links")
	c.Flags().StringVar(&query, "search", "", "Only notifications matching the query")
	c.Flags().StringVar(&mode, "search-mode", "", "Search mode: substring, regex or token")
	return c
}

var listCmd = NewListCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(listCmd)
}
