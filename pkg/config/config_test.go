package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

const sampleSession = `
proxy_url: https://proxy.example.org
user_id: "@alice:example.org"
poll_timeout: 30s
event_log: /tmp/session.sslog
log_level: debug
lists:
  - index: 0
    ranges: [[0, 20]]
  - index: 1
    ranges: [[0, 9], [20, 29]]
    sort: [by_name]
    timeline_limit: 3
    filters:
      is_dm: true
rooms:
  - "!cached:example.org"
`

func TestParseSession(t *testing.T) {
	s, err := Parse([]byte(sampleSession))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.ProxyURL != "https://proxy.example.org" {
		t.Errorf("ProxyURL = %q", s.ProxyURL)
	}
	if s.UserID != id.UserID("@alice:example.org") {
		t.Errorf("UserID = %q", s.UserID)
	}
	if s.PollTimeout != 30*time.Second {
		t.Errorf("PollTimeout = %v, want 30s", s.PollTimeout)
	}
	if len(s.Lists) != 2 {
		t.Fatalf("Lists = %d, want 2", len(s.Lists))
	}
	if len(s.Rooms) != 1 || s.Rooms[0] != "!cached:example.org" {
		t.Errorf("Rooms = %v", s.Rooms)
	}

	lvl, err := s.Level()
	if err != nil || lvl != slog.LevelDebug {
		t.Errorf("Level() = %v, %v; want DEBUG", lvl, err)
	}
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("proxy_url: https://p.example.org\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if s.PollTimeout != 20*time.Second {
		t.Errorf("PollTimeout = %v, want 20s", s.PollTimeout)
	}
	if lvl, _ := s.Level(); lvl != slog.LevelInfo {
		t.Errorf("Level() = %v, want INFO", lvl)
	}
}

func TestListPatch(t *testing.T) {
	s, err := Parse([]byte(sampleSession))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	p0, err := s.Lists[0].Patch()
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	if !p0.RangesOnly() {
		t.Errorf("list 0 fields = %v, want ranges only", p0.Fields())
	}

	p1, err := s.Lists[1].Patch()
	if err != nil {
		t.Fatalf("Patch failed: %v", err)
	}
	got := p1.Apply(wire.ListSpec{TimelineLimit: 1})
	want := wire.ListSpec{
		Ranges:        []wire.Range{wire.NewRange(0, 9), wire.NewRange(20, 29)},
		Sort:          []string{wire.SortByName},
		TimelineLimit: 3,
		Filters:       wire.Filters{"is_dm": true},
	}
	if !got.Equal(want) {
		t.Errorf("Apply() = %+v, want %+v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad yaml", "proxy_url: [", "failed to parse YAML"},
		{"missing proxy", "user_id: \"@a:b\"\n", "proxy_url is required"},
		{"bad user", "proxy_url: x\nuser_id: alice\n", "user_id"},
		{"bad level", "proxy_url: x\nlog_level: loud\n", "log_level"},
		{"bad range", "proxy_url: x\nlists:\n  - index: 0\n    ranges: [[5, 1]]\n", "invalid range"},
		{"short range", "proxy_url: x\nlists:\n  - index: 0\n    ranges: [[5]]\n", "not a [start, end] pair"},
		{"overlap", "proxy_url: x\nlists:\n  - index: 0\n    ranges: [[0, 5], [3, 9]]\n", "non-overlapping"},
		{"duplicate", "proxy_url: x\nlists:\n  - index: 2\n  - index: 2\n", "defined twice"},
		{"negative", "proxy_url: x\nlists:\n  - index: -1\n", "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %T is not a *LoadError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(sampleSession), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.EventLog != "/tmp/session.sslog" {
		t.Errorf("EventLog = %q", s.EventLog)
	}
}

func TestLoadErrorsCarryFile(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	_, err := Load(missing)
	var le *LoadError
	if !errors.As(err, &le) || le.File != missing {
		t.Errorf("Load(missing) = %v, want LoadError for %s", err, missing)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) does not wrap os.ErrNotExist: %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("user_id: \"@a:b\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(bad)
	if !errors.As(err, &le) || le.File != bad {
		t.Errorf("Load(bad) = %v, want LoadError for %s", err, bad)
	}
	if !strings.HasPrefix(err.Error(), bad+": ") {
		t.Errorf("error %q does not start with the file name", err)
	}
}
