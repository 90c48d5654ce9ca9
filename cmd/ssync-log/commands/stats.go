package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/slidingsync/ssync-go/pkg/log"
	"github.com/spf13/cobra"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]int
	Lists            map[int]*ListStats
	Rounds           map[string]int
	Confirmations    map[log.ConfirmAction]int
	TotalWait        time.Duration
	MaxWait          time.Duration
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ListStats counts registration decisions for one list index.
type ListStats struct {
	Ops map[string]int
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file.sslog>",
		Short: "Show statistics about a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStats(args[0], log.Filter{SessionID: rootOpts.SessionID}, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
}

// CollectStats reads every matching event of the file.
func CollectStats(path string, filter log.Filter) (*Stats, error) {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]int),
		Lists:            make(map[int]*ListStats),
		Rounds:           make(map[string]int),
		Confirmations:    make(map[log.ConfirmAction]int),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.Sessions[event.SessionID]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.List != nil:
		ls, ok := s.Lists[event.List.Index]
		if !ok {
			ls = &ListStats{Ops: make(map[string]int)}
			s.Lists[event.List.Index] = ls
		}
		ls.Ops[event.List.Op]++
	case event.Round != nil:
		s.Rounds[event.Round.State]++
	case event.Confirmation != nil:
		s.Confirmations[event.Confirmation.Action]++
		if event.Confirmation.Action == log.ConfirmFired && event.Confirmation.Waited != nil {
			w := *event.Confirmation.Waited
			s.TotalWait += w
			if w > s.MaxWait {
				s.MaxWait = w
			}
		}
	case event.Error != nil:
		s.Errors++
	}
}

// RunStats prints statistics for the trace file.
func RunStats(path string, filter log.Filter, w io.Writer) error {
	stats, err := CollectStats(path, filter)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Coordinator Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.UTC().Format(time.RFC3339),
			stats.TimeRange.End.UTC().Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryGate; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Lists) > 0 {
		fmt.Fprintln(w, "Lists:")
		indices := make([]int, 0, len(stats.Lists))
		for idx := range stats.Lists {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			ops := stats.Lists[idx].Ops
			fmt.Fprintf(w, "  [%d] SET_LIST=%d SET_RANGES=%d NONE=%d\n",
				idx, ops["SET_LIST"], ops["SET_RANGES"], ops["NONE"])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Rounds) > 0 {
		fmt.Fprintf(w, "Rounds: %d complete, %d errored\n", stats.Rounds["COMPLETE"], stats.Rounds["ERRORED"])
		fmt.Fprintln(w)
	}

	if len(stats.Confirmations) > 0 {
		fmt.Fprintf(w, "Confirmations: %d registered, %d fired, %d cancelled\n",
			stats.Confirmations[log.ConfirmRegistered],
			stats.Confirmations[log.ConfirmFired],
			stats.Confirmations[log.ConfirmCancelled])
		if fired := stats.Confirmations[log.ConfirmFired]; fired > 0 {
			fmt.Fprintf(w, "  Mean wait: %s\n", formatDuration(stats.TotalWait/time.Duration(fired)))
			fmt.Fprintf(w, "  Max wait:  %s\n", formatDuration(stats.MaxWait))
		}
		fmt.Fprintln(w)
	}

	if stats.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
