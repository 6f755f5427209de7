package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/formatter"
	inboxsync "github.com/univ-portal/portal-inbox/internal/sync"
)

type statusClient interface {
	listClient
	queueClient
}

// NewStatusCmd creates the status command with explicit dependencies.
func NewStatusCmd(client statusClient) *cobra.Command {
	if client == nil {
		panic("NewStatusCmd: client dependency cannot be nil")
	}

	var formatFlag string
	var listPresets bool

	c := &cobra.Command{
		Use:   "status",
		Short: "Print a one-line inbox summary",
		Long: `Print a one-line inbox summary, for status bars and scripts.

USAGE:
    portal-inbox status [OPTIONS]

OPTIONS:
    --format <f>     Preset name or custom template (default: status_format)
    --presets        List the presets
    -h, --help       Show this help

VARIABLES:
    ${unread-count} ${total-count} ${read-count} ${queued-count}
    ${latest-title} ${has-unread} ${has-queued} ${grouping}
    ${admin-count} ${cours-count} ${examen-count} ${schedule-count}

EXAMPLES:
    portal-inbox status --format=detailed
    portal-inbox status --format='${unread-count} non lues'`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			registry := formatter.NewPresetRegistry()
			out := c.OutOrStdout()
			if listPresets {
				for _, p := range registry.List() {
					fmt.Fprintf(out, "%-12s %s\n", p.Name, p.Template)
				}
				return nil
			}

			format := formatFlag
			if !c.Flags().Changed("format") {
				format = config.Get("status_format", "compact")
			}
			tmpl, err := formatter.Resolve(registry, format)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			engine := formatter.NewTemplateEngine()
			if err := engine.Validate(tmpl); err != nil {
				return fmt.Errorf("status: %w", err)
			}

			view, err := client.RefreshNotificationsWith(c.Context(), inboxsync.ViewOptions{})
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			queued, err := client.QueuedEntries(c.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}

			vars := formatter.NewContext(domain.Flatten(view.Items), len(queued), view.Strategy)
			line, err := engine.Substitute(tmpl, vars)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			fmt.Fprintln(out, line)
			return nil
		},
	}

	c.Flags().StringVar(&formatFlag, "format", "compact", "Preset name or custom template")
	c.Flags().BoolVar(&listPresets, "presets", false, "List the presets")
	return c
}

var statusCmd = NewStatusCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(statusCmd)
}

