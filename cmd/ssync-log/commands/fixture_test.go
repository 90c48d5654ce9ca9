package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/slidingsync/ssync-go/pkg/log"
	"github.com/slidingsync/ssync-go/pkg/wire"
)

const (
	fixtureSession     = "5f0c2a9e-1111-2222-3333-444455556666"
	fixtureCorrelation = "7b1f0c1e-6c1a-4c55-9e41-2b8d8e2f0a11"
)

var fixtureBase = time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)

// fixtureEvents is a short session: configure, register list 0, subscribe a
// room, one completed round, then a failed one.
func fixtureEvents() []log.Event {
	spec := wire.ListSpec{
		Ranges:        []wire.Range{wire.NewRange(0, 20)},
		Sort:          []string{wire.SortByRecency},
		TimelineLimit: 1,
	}
	waited := 1498 * time.Millisecond

	return []log.Event{
		{
			Timestamp: fixtureBase,
			SessionID: fixtureSession,
			Category:  log.CategoryGate,
			Gate: &log.GateEvent{
				OldState: "UNCONFIGURED",
				NewState: "CONFIGURED",
				ProxyURL: "https://proxy.example.org",
				Released: 1,
			},
		},
		{
			Timestamp: fixtureBase.Add(time.Millisecond),
			SessionID: fixtureSession,
			Category:  log.CategoryList,
			List: &log.ListEvent{
				Index:   0,
				Op:      "SET_LIST",
				Fields:  []string{"ranges"},
				Spec:    &spec,
				Round:   1,
				Created: true,
			},
		},
		{
			Timestamp: fixtureBase.Add(2 * time.Millisecond),
			SessionID: fixtureSession,
			Category:  log.CategoryConfirmation,
			Confirmation: &log.ConfirmationEvent{
				CorrelationID: fixtureCorrelation,
				Key:           "list:0",
				Action:        log.ConfirmRegistered,
				Round:         1,
			},
		},
		{
			Timestamp: fixtureBase.Add(3 * time.Millisecond),
			SessionID: fixtureSession,
			Category:  log.CategorySubscription,
			Subscription: &log.SubscriptionEvent{
				RoomID:  "!a:example.org",
				Visible: true,
				Changed: true,
				Size:    1,
				Round:   1,
			},
		},
		{
			Timestamp: fixtureBase.Add(1500 * time.Millisecond),
			SessionID: fixtureSession,
			Category:  log.CategoryRound,
			Round: &log.RoundEvent{
				Round: 1,
				State: "COMPLETE",
				Pos:   "1",
				Lists: []int{0},
				Fired: 1,
			},
		},
		{
			Timestamp: fixtureBase.Add(1500 * time.Millisecond),
			SessionID: fixtureSession,
			Category:  log.CategoryConfirmation,
			Confirmation: &log.ConfirmationEvent{
				CorrelationID: fixtureCorrelation,
				Key:           "list:0",
				Action:        log.ConfirmFired,
				Round:         1,
				Waited:        &waited,
			},
		},
		{
			Timestamp: fixtureBase.Add(25 * time.Second),
			SessionID: fixtureSession,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Message: "proxy returned 502",
				Context: "round 2",
			},
		},
	}
}

func writeFixture(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.sslog")
	fl, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		fl.Log(e)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}
