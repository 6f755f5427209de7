/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
)

type markReadClient interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
}

// NewMarkReadCmd creates the mark-read command with explicit dependencies.
func NewMarkReadCmd(client markReadClient) *cobra.Command {
	if client == nil {
		panic("NewMarkReadCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "mark-read <id>...",
		Short: "Mark notifications as read",
		Long: `Mark one or more notifications as read by ID.

USAGE:
    portal-inbox mark-read <id>...

OPTIONS:
    -h, --help           Show this help`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			for _, id := range args {
				if err := client.MarkRead(c.Context(), id); err != nil {
					return fmt.Errorf("mark-read %s: %w", id, err)
				}
				colors.Success(fmt.Sprintf("Notification %s marked as read", id))
			}
			return nil
		},
	}
}

// NewMarkAllReadCmd creates the mark-all-read command with explicit dependencies.
func NewMarkAllReadCmd(client markReadClient) *cobra.Command {
	if client == nil {
		panic("NewMarkAllReadCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "mark-all-read",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if err := client.MarkAllRead(c.Context()); err != nil {
				return fmt.Errorf("mark-all-read: %w", err)
			}
			colors.Success("All notifications marked as read")
			return nil
		},
	}
}

var markReadCmd = NewMarkReadCmd(defaultClient)
var markAllReadCmd = NewMarkAllReadCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(markReadCmd)
	cmd.RootCmd.AddCommand(markAllReadCmd)
}
