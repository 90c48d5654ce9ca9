// Package config loads sync session settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/slidingsync/ssync-go/pkg/wire"
	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/id"
)

// LoadError reports a session file that could not be loaded.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Session describes one sync session.
type Session struct {
	// ProxyURL is the sliding sync endpoint.
	ProxyURL string `yaml:"proxy_url"`

	// UserID is the logged in user.
	UserID id.UserID `yaml:"user_id"`

	// PollTimeout is the engine long-poll timeout.
	PollTimeout time.Duration `yaml:"poll_timeout"`

	// EventLog is the trace file path. Empty disables the file trace.
	EventLog string `yaml:"event_log,omitempty"`

	// LogLevel is the slog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// Lists are registered at startup in order.
	Lists []List `yaml:"lists,omitempty"`

	// Rooms are treated as already cached by the client.
	Rooms []id.RoomID `yaml:"rooms,omitempty"`
}

// List is a list registration. Omitted fields keep the default list values.
type List struct {
	Index         int            `yaml:"index"`
	Ranges        [][]int        `yaml:"ranges,omitempty"`
	Sort          []string       `yaml:"sort,omitempty"`
	TimelineLimit *int           `yaml:"timeline_limit,omitempty"`
	Filters       map[string]any `yaml:"filters,omitempty"`
}

// Patch converts the entry into a list patch.
func (l List) Patch() (wire.ListPatch, error) {
	var p wire.ListPatch
	if l.Ranges != nil {
		ranges := make([]wire.Range, 0, len(l.Ranges))
		for _, pair := range l.Ranges {
			if len(pair) != 2 {
				return wire.ListPatch{}, fmt.Errorf("list %d: range %v is not a [start, end] pair", l.Index, pair)
			}
			ranges = append(ranges, wire.NewRange(pair[0], pair[1]))
		}
		p = p.WithRanges(ranges...)
	}
	if l.Sort != nil {
		p = p.WithSort(l.Sort...)
	}
	if l.TimelineLimit != nil {
		p = p.WithTimelineLimit(*l.TimelineLimit)
	}
	if l.Filters != nil {
		p = p.WithFilters(wire.Filters(l.Filters))
	}
	if err := p.Validate(); err != nil {
		return wire.ListPatch{}, fmt.Errorf("list %d: %w", l.Index, err)
	}
	return p, nil
}

// Default returns a session with the standard poll timeout and info
// logging.
func Default() Session {
	return Session{
		PollTimeout: 20 * time.Second,
		LogLevel:    "info",
	}
}

// Level returns the configured slog level.
func (s Session) Level() (slog.Level, error) {
	var lvl slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return lvl, nil
}

// Validate checks the session fields.
func (s Session) Validate() error {
	var errs []error
	if s.ProxyURL == "" {
		errs = append(errs, errors.New("proxy_url is required"))
	}
	if s.UserID != "" {
		if _, _, err := s.UserID.Parse(); err != nil {
			errs = append(errs, fmt.Errorf("user_id: %w", err))
		}
	}
	if s.PollTimeout < 0 {
		errs = append(errs, fmt.Errorf("poll_timeout must not be negative: %s", s.PollTimeout))
	}
	if _, err := s.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	seen := make(map[int]bool)
	for _, l := range s.Lists {
		if l.Index < 0 {
			errs = append(errs, fmt.Errorf("list index must not be negative: %d", l.Index))
		}
		if seen[l.Index] {
			errs = append(errs, fmt.Errorf("list %d defined twice", l.Index))
		}
		seen[l.Index] = true
		if _, err := l.Patch(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Parse decodes and validates a session. Fields absent from data keep
// their Default values.
func Parse(data []byte) (*Session, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}
	if err := s.Validate(); err != nil {
		return nil, &LoadError{
			Message: "invalid session",
			Cause:   err,
		}
	}
	return &s, nil
}

// Load reads and parses the session file at path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	s, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return s, nil
}
