/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/logging"
	"github.com/univ-portal/portal-inbox/internal/version"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:           "portal-inbox",
	Short:         "Keep the university portal inbox in sync with your requests.",
	Long:          `Keep the university portal inbox in sync with your requests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return Setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := logging.ShutdownGlobal(); err != nil {
			colors.Debug(fmt.Sprintf("log shutdown: %v", err))
		}
	},
}

// Setup loads configuration, applies the global flags and starts file logging.
func Setup(cmd *cobra.Command) error {
	config.Load()
	if f := cmd.Flags().Lookup("debug"); f != nil && f.Changed {
		config.Set("debug", f.Value.String())
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
		config.Set("quiet", f.Value.String())
	}
	colors.SetDebug(config.GetBool("debug", false))
	colors.SetQuiet(config.GetBool("quiet", false))
	if err := logging.InitGlobal(); err != nil {
		colors.Warning(fmt.Sprintf("file logging disabled: %v", err))
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return RootCmd.Execute()
}

// ExecuteContext is Execute with a context that commands observe for cancellation.
func ExecuteContext(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.PersistentFlags().Bool("debug", false, "Print debug output")
	RootCmd.PersistentFlags().Bool("quiet", false, "Only print errors")

	defaultHelp := RootCmd.HelpFunc()
	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != RootCmd {
			defaultHelp(cmd, args)
			return
		}
		printHelpText(cmd)
	})
}

func printHelpText(cmd *cobra.Command) {
	commandOrder := []string{
		"sync",
		"list",
		"status",
		"flush",
		"queue",
		"mark-read",
		"mark-all-read",
		"delete",
		"delete-read",
		"prefs",
		"cache",
		"watch",
		"tui",
		"version",
	}

	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-22s %s", found.Use, found.Short))
	}

	helpText := fmt.Sprintf(`portal-inbox %s

Keep the university portal inbox in sync with your requests.

USAGE:
    portal-inbox [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    --debug         Print debug output
    --quiet         Only print errors
    -h, --help      Show help message
`, version.String(), strings.Join(cmdLines, "\n"))
	fmt.Fprint(cmd.OutOrStdout(), helpText)
}
