// Package repl drives a coordinator over an in-memory engine from typed
// commands.
package repl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// Parse errors.
var (
	ErrUsage        = errors.New("usage")
	ErrUnknownField = errors.New("unknown list field")
)

// Command is one parsed input line.
type Command struct {
	Name string
	Args []string
}

// Parse splits line into a command name and arguments. It returns false for
// blank lines.
func Parse(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// ParseRanges parses "0-20,40-59" into ranges. A lone "-" is the empty
// window.
func ParseRanges(s string) ([]wire.Range, error) {
	if s == "-" {
		return []wire.Range{}, nil
	}
	parts := strings.Split(s, ",")
	ranges := make([]wire.Range, 0, len(parts))
	for _, p := range parts {
		lo, hi, ok := strings.Cut(p, "-")
		if !ok {
			return nil, fmt.Errorf("range %q: want start-end", p)
		}
		start, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", p, err)
		}
		end, err := strconv.Atoi(hi)
		if err != nil {
			return nil, fmt.Errorf("range %q: %w", p, err)
		}
		ranges = append(ranges, wire.NewRange(start, end))
	}
	return ranges, nil
}

// ParsePatch parses "field value" pairs into a list patch. Fields are
// ranges, sort and timeline.
func ParsePatch(args []string) (wire.ListPatch, error) {
	var patch wire.ListPatch
	if len(args)%2 != 0 {
		return patch, fmt.Errorf("%w: list <index> [ranges a-b,..] [sort k1,k2] [timeline n]", ErrUsage)
	}
	for i := 0; i < len(args); i += 2 {
		field, value := args[i], args[i+1]
		switch field {
		case "ranges":
			ranges, err := ParseRanges(value)
			if err != nil {
				return patch, err
			}
			patch = patch.WithRanges(ranges...)
		case "sort":
			patch = patch.WithSort(strings.Split(value, ",")...)
		case "timeline":
			n, err := strconv.Atoi(value)
			if err != nil {
				return patch, fmt.Errorf("timeline: %w", err)
			}
			patch = patch.WithTimelineLimit(n)
		default:
			return patch, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return patch, nil
}

// ParseVisible parses on/off.
func ParseVisible(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: visible <room> on|off", ErrUsage)
	}
}

// ParseRooms converts arguments to room IDs.
func ParseRooms(args []string) []id.RoomID {
	rooms := make([]id.RoomID, len(args))
	for i, a := range args {
		rooms[i] = id.RoomID(a)
	}
	return rooms
}
