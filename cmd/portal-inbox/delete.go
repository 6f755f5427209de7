package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
)

type deleteClient interface {
	Delete(ctx context.Context, id string) error
	DeleteAllRead(ctx context.Context) error
}

// NewDeleteCmd creates the delete command with explicit dependencies.
func NewDeleteCmd(client deleteClient) *cobra.Command {
	if client == nil {
		panic("NewDeleteCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete notifications",
		Long: `Delete one or more notifications by ID.

USAGE:
    portal-inbox delete <id>...

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			for _, id := range args {
				if err := client.Delete(c.Context(), id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				colors.Success(fmt.Sprintf("Notification %s deleted", id))
			}
			return nil
		},
	}
}

// NewDeleteReadCmd creates the delete-read command with explicit dependencies.
func NewDeleteReadCmd(client deleteClient) *cobra.Command {
	if client == nil {
		panic("NewDeleteReadCmd: client dependency cannot be nil")
	}

	var yes bool
	c := &cobra.Command{
		Use:   "delete-read",
		Short: "Delete every read notification",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if !yes && !confirm(c.InOrStdin(), c.OutOrStdout(), "Delete all read notifications?") {
				colors.Info("Operation cancelled")
				return nil
			}
			if err := client.DeleteAllRead(c.Context()); err != nil {
				return fmt.Errorf("delete-read: %w", err)
			}
			colors.Success("Read notifications deleted")
			return nil
		},
	}
	c.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return c
}

var deleteCmd = NewDeleteCmd(defaultClient)
var deleteReadCmd = NewDeleteReadCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(deleteCmd)
	cmd.RootCmd.AddCommand(deleteReadCmd)
}
