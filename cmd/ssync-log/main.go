// Command ssync-log views and summarizes coordinator trace files.
//
// Trace files are written by ssync-demo with --event-log, or by any program
// that passes a log.FileLogger to coordinator.WithEventLogger.
//
// Usage:
//
//	ssync-log <command> [flags] <file.sslog>
//
// Examples:
//
//	# View all events
//	ssync-log view session.sslog
//
//	# View the decisions and confirmations for list 0
//	ssync-log view --list 0 session.sslog
//
//	# Only confirmations
//	ssync-log view --category confirmation session.sslog
//
//	# Export to JSONL
//	ssync-log export session.sslog
//
//	# Show statistics
//	ssync-log stats session.sslog
package main

import (
	"os"

	"github.com/slidingsync/ssync-go/cmd/ssync-log/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
