package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/statuscache"
)

type cacheClient interface {
	CacheEntries(ctx context.Context) ([]statuscache.IDEntry, error)
	PruneCache(ctx context.Context, olderThan time.Duration) (int, error)
	ResetCache(ctx context.Context) error
}

// NewCacheCmd creates the cache command group with explicit dependencies.
func NewCacheCmd(client cacheClient) *cobra.Command {
	if client == nil {
		panic("NewCacheCmd: client dependency cannot be nil")
	}

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the request status cache",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the last known status of every request",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			entries, err := client.CacheEntries(c.Context())
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			if len(entries) == 0 {
				colors.Info("Status cache is empty")
				return nil
			}
			w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REQUEST\tTYPE\tSTATUS\tUPDATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.ID, e.Type, e.Status, e.LastUpdated.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop entries not updated recently",
		Long: `Drop status entries whose last update is older than --older-than.
A pruned request that reappears is treated as a first observation.

USAGE:
    portal-inbox cache prune --older-than 720h`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("cache prune: --older-than must be positive")
			}
			n, err := client.PruneCache(c.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("cache prune: %w", err)
			}
			colors.Success(fmt.Sprintf("Pruned %d entries", n))
			return nil
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold, e.g. 720h")

	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every known status",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if !yes && !confirm(c.InOrStdin(), c.OutOrStdout(), "Forget every known request status?") {
				colors.Info("Operation cancelled")
				return nil
			}
			if err := client.ResetCache(c.Context()); err != nil {
				return fmt.Errorf("cache reset: %w", err)
			}
			colors.Success("Status cache cleared")
			return nil
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	cacheCmd.AddCommand(showCmd, pruneCmd, resetCmd)
	return cacheCmd
}

var cacheCmd = NewCacheCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(cacheCmd)
}
