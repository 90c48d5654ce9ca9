// Package commands implements the ssync-log CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by all commands.
type RootOptions struct {
	// SessionID restricts output to one coordinator session.
	SessionID string
}

// NewRootCommand creates the ssync-log root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ssync-log",
		Short: "Sliding sync coordinator trace analyzer",
		Long:  "View, export and summarize trace files written by the list coordinator.",
	}
	cmd.PersistentFlags().StringVar(&opts.SessionID, "session", "", "only events from this session id")

	cmd.AddCommand(NewViewCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	return cmd
}
