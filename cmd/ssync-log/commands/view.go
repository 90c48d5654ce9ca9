package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/slidingsync/ssync-go/pkg/log"
	"github.com/spf13/cobra"
)

// ViewOptions holds flags for the view command.
type ViewOptions struct {
	*RootOptions
	Category string
	List     int
}

// NewViewCommand creates the view command.
func NewViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view [flags] <file.sslog>",
		Short: "View a trace file in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter(cmd)
			if err != nil {
				return err
			}
			return RunView(args[0], filter, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category (gate, list, subscription, confirmation, round, error)")
	cmd.Flags().IntVar(&opts.List, "list", -1, "filter list and confirmation events by list index")
	return cmd
}

func (o *ViewOptions) filter(cmd *cobra.Command) (log.Filter, error) {
	f := log.Filter{SessionID: o.SessionID}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		f.Category = &c
	}
	if cmd.Flags().Changed("list") {
		if o.List < 0 {
			return log.Filter{}, fmt.Errorf("invalid list index: %d", o.List)
		}
		idx := o.List
		f.ListIndex = &idx
	}
	return f, nil
}

// ParseCategoryFlag parses a category name (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be gate, list, subscription, confirmation, round, or error)", s)
	}
	return c, nil
}

// RunView writes every event of the file matching filter to output.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a header line and indented details for event.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [session:%s] %s %s\n", ts, shortID(event.SessionID), event.Category.String(), typeLabel(event))

	switch {
	case event.Gate != nil:
		formatGateDetails(w, event.Gate)
	case event.List != nil:
		formatListDetails(w, event.List)
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.Confirmation != nil:
		formatConfirmationDetails(w, event.Confirmation)
	case event.Round != nil:
		formatRoundDetails(w, event.Round)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

func typeLabel(event log.Event) string {
	switch {
	case event.Gate != nil:
		return "Transition"
	case event.List != nil:
		return event.List.Op
	case event.Subscription != nil:
		if event.Subscription.Visible {
			return "Subscribe"
		}
		return "Unsubscribe"
	case event.Confirmation != nil:
		return event.Confirmation.Action.String()
	case event.Round != nil:
		return event.Round.State
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortID returns the first 8 characters of an id.
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatGateDetails(w io.Writer, g *log.GateEvent) {
	if g.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", g.OldState, g.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", g.NewState)
	}
	if g.ProxyURL != "" {
		fmt.Fprintf(w, "  Proxy: %s\n", g.ProxyURL)
	}
	if g.Released > 0 {
		fmt.Fprintf(w, "  Released: %d\n", g.Released)
	}
}

func formatListDetails(w io.Writer, l *log.ListEvent) {
	if l.Created {
		fmt.Fprintf(w, "  Index: %d (new)\n", l.Index)
	} else {
		fmt.Fprintf(w, "  Index: %d\n", l.Index)
	}
	if len(l.Fields) > 0 {
		fmt.Fprintf(w, "  Fields: %s\n", strings.Join(l.Fields, ", "))
	}
	if l.Round != 0 {
		fmt.Fprintf(w, "  Round: %d\n", l.Round)
	}
	if l.Spec != nil {
		ranges := make([]string, 0, len(l.Spec.Ranges))
		for _, r := range l.Spec.Ranges {
			ranges = append(ranges, r.String())
		}
		fmt.Fprintf(w, "  Ranges: %s\n", strings.Join(ranges, " "))
		if len(l.Spec.Sort) > 0 {
			fmt.Fprintf(w, "  Sort: %s\n", strings.Join(l.Spec.Sort, ", "))
		}
		fmt.Fprintf(w, "  TimelineLimit: %d\n", l.Spec.TimelineLimit)
	}
}

func formatSubscriptionDetails(w io.Writer, s *log.SubscriptionEvent) {
	fmt.Fprintf(w, "  Room: %s\n", s.RoomID)
	fmt.Fprintf(w, "  Changed: %t  Size: %d\n", s.Changed, s.Size)
	if s.Round != 0 {
		fmt.Fprintf(w, "  Round: %d\n", s.Round)
	}
	if s.FastPath {
		fmt.Fprintln(w, "  Cached: resolved immediately")
	}
}

func formatConfirmationDetails(w io.Writer, c *log.ConfirmationEvent) {
	fmt.Fprintf(w, "  Key: %s\n", c.Key)
	fmt.Fprintf(w, "  Correlation: %s\n", shortID(c.CorrelationID))
	if c.Round != 0 {
		fmt.Fprintf(w, "  Round: %d\n", c.Round)
	}
	if c.Waited != nil {
		fmt.Fprintf(w, "  Waited: %s\n", formatDuration(*c.Waited))
	}
}

func formatRoundDetails(w io.Writer, r *log.RoundEvent) {
	fmt.Fprintf(w, "  Round: %d\n", r.Round)
	if r.Pos != "" {
		fmt.Fprintf(w, "  Pos: %s\n", r.Pos)
	}
	if len(r.Lists) > 0 {
		lists := make([]string, len(r.Lists))
		for i, idx := range r.Lists {
			lists[i] = fmt.Sprint(idx)
		}
		fmt.Fprintf(w, "  Lists: %s\n", strings.Join(lists, ", "))
	}
	if r.Fired > 0 {
		fmt.Fprintf(w, "  Fired: %d\n", r.Fired)
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
