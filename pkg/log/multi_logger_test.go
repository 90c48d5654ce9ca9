package log

import (
	"testing"
	"time"
)

// recordingLogger records events for testing.
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	rec1 := &recordingLogger{}
	rec2 := &recordingLogger{}
	rec3 := &recordingLogger{}

	multi := NewMultiLogger(rec1, rec2, rec3)
	multi.Log(Event{Timestamp: time.Now(), SessionID: "s-1", Category: CategoryRound})

	for i, rec := range []*recordingLogger{rec1, rec2, rec3} {
		if len(rec.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(rec.events))
			continue
		}
		if rec.events[0].SessionID != "s-1" {
			t.Errorf("logger %d: SessionID = %q, want %q", i, rec.events[0].SessionID, "s-1")
		}
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	multi := NewMultiLogger()
	multi.Log(Event{Timestamp: time.Now(), Category: CategoryGate})
}

func TestMultiLoggerSkipsNil(t *testing.T) {
	rec := &recordingLogger{}
	multi := NewMultiLogger(nil, rec, nil)
	multi.Log(Event{Category: CategoryList})

	if len(rec.events) != 1 {
		t.Errorf("got %d events, want 1", len(rec.events))
	}
}

func TestMultiLoggerPreservesOrder(t *testing.T) {
	rec := &recordingLogger{}
	multi := NewMultiLogger(rec)

	for i := 0; i < 5; i++ {
		multi.Log(Event{Category: CategoryList, List: &ListEvent{Index: i}})
	}

	if len(rec.events) != 5 {
		t.Fatalf("got %d events, want 5", len(rec.events))
	}
	for i, ev := range rec.events {
		if ev.List.Index != i {
			t.Errorf("event %d: Index = %d", i, ev.List.Index)
		}
	}
}
