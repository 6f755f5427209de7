package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/cmd"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/settings"
)

type prefsClient interface {
	LoadPreferences(ctx context.Context) (settings.Preferences, error)
	SavePreferences(ctx context.Context, p settings.Preferences) error
}

// NewPrefsCmd creates the prefs command group with explicit dependencies.
func NewPrefsCmd(client prefsClient) *cobra.Command {
	if client == nil {
		panic("NewPrefsCmd: client dependency cannot be nil")
	}

	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change notification preferences",
		Long: `Show or change notification preferences.

USAGE:
    portal-inbox prefs show
    portal-inbox prefs set [OPTIONS]`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			p, err := client.LoadPreferences(c.Context())
			if err != nil {
				colors.Warning(fmt.Sprintf("using default preferences: %v", err))
			}
			printPreferences(c.OutOrStdout(), p)
			return nil
		},
	}

	var (
		grouping string
		enable   []string
		disable  []string
		email    bool
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change preferences",
		Long: `Change preferences. The whole document is saved locally, then mirrored
to the portal when preferences_mirror is on.

USAGE:
    portal-inbox prefs set [OPTIONS]

OPTIONS:
    --grouping <s>      Grouping strategy: none, daily, type
    --enable <type>     Show a notification type (repeatable)
    --disable <type>    Hide a notification type (repeatable)
    --email             Also send notifications by email (--email=false to stop)
    -h, --help          Show this help`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			p, err := client.LoadPreferences(c.Context())
			if err != nil {
				return fmt.Errorf("prefs: %w", err)
			}
			if c.Flags().Changed("grouping") {
				g, err := domain.ParseGroupingStrategy(grouping)
				if err != nil {
					return fmt.Errorf("prefs: %w", err)
				}
				p.Grouping = g
			}
			for _, t := range enable {
				if err := p.SetType(t, true); err != nil {
					return fmt.Errorf("prefs: %w", err)
				}
			}
			for _, t := range disable {
				if err := p.SetType(t, false); err != nil {
					return fmt.Errorf("prefs: %w", err)
				}
			}
			if c.Flags().Changed("email") {
				p.Email = email
			}
			if err := client.SavePreferences(c.Context(), p); err != nil {
				return fmt.Errorf("prefs: %w", err)
			}
			colors.Success("Preferences saved")
			printPreferences(c.OutOrStdout(), p)
			return nil
		},
	}
	setCmd.Flags().StringVar(&grouping, "grouping", "", "Grouping strategy: none, daily, type")
	setCmd.Flags().StringSliceVar(&enable, "enable", nil, "Show a notification type")
	setCmd.Flags().StringSliceVar(&disable, "disable", nil, "Hide a notification type")
	setCmd.Flags().BoolVar(&email, "email", true, "Also send notifications by email")

	prefsCmd.AddCommand(showCmd, setCmd)
	return prefsCmd
}

func printPreferences(w io.Writer, p settings.Preferences) {
	fmt.Fprintf(w, "grouping: %s\n", p.Grouping)
	fmt.Fprintf(w, "email: %t\n", p.Email)
	types := make([]string, 0, len(domain.KnownTypes))
	for _, t := range domain.KnownTypes {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		state := "on"
		if !p.Enabled(domain.NotificationType(t)) {
			state = "off"
		}
		fmt.Fprintf(w, "%-16s %s\n", t, state)
	}
}

var prefsCmd = NewPrefsCmd(defaultClient)

func init() {
	cmd.RootCmd.AddCommand(prefsCmd)
}
