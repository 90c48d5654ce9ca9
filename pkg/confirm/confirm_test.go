package confirm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slidingsync/ssync-go/pkg/engine"
	"github.com/slidingsync/ssync-go/pkg/wire"
)

func completeEvent(round engine.Round, lists ...int) engine.Event {
	resp := &wire.SyncResponse{Lists: map[int]wire.ListResponse{}}
	for _, idx := range lists {
		resp.Lists[idx] = wire.ListResponse{}
	}
	return engine.Event{Kind: engine.EventLifecycle, Round: round, State: wire.StateComplete, Response: resp}
}

func TestListConfirmedPredicate(t *testing.T) {
	match := ListConfirmed(2, 5)

	tests := []struct {
		name string
		ev   engine.Event
		want bool
	}{
		{"complete with list", completeEvent(5, 2), true},
		{"later round", completeEvent(9, 0, 2), true},
		{"earlier round", completeEvent(4, 2), false},
		{"list missing", completeEvent(5, 0, 1), false},
		{"request finished", engine.Event{Kind: engine.EventLifecycle, Round: 5, State: wire.StateRequestFinished,
			Response: &wire.SyncResponse{Lists: map[int]wire.ListResponse{2: {}}}}, false},
		{"errored", engine.Event{Kind: engine.EventLifecycle, Round: 5, State: wire.StateErrored}, false},
		{"room data", engine.Event{Kind: engine.EventRoomData, Round: 5, RoomID: "!a:x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := match(tt.ev); got != tt.want {
				t.Errorf("match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoomDataReceivedPredicate(t *testing.T) {
	match := RoomDataReceived("!a:x", 3)

	if !match(engine.Event{Kind: engine.EventRoomData, Round: 3, RoomID: "!a:x"}) {
		t.Error("expected match for same room and round")
	}
	if match(engine.Event{Kind: engine.EventRoomData, Round: 3, RoomID: "!b:x"}) {
		t.Error("matched a different room")
	}
	if match(engine.Event{Kind: engine.EventRoomData, Round: 2, RoomID: "!a:x"}) {
		t.Error("matched an earlier round")
	}
}

func TestRegistryDispatchFiresOnce(t *testing.T) {
	r := NewRegistry()
	w := r.Register(ListKey(0), ListConfirmed(0, 1))

	if r.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", r.Pending())
	}
	if n := r.Dispatch(completeEvent(1, 0)); n != 1 {
		t.Errorf("Dispatch fired %d, want 1", n)
	}
	if n := r.Dispatch(completeEvent(2, 0)); n != 0 {
		t.Errorf("second Dispatch fired %d, want 0", n)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after fire, want 0", r.Pending())
	}

	ev, ok := w.Event()
	if !ok || ev.Round != 1 {
		t.Errorf("Event() = %+v, %v; want round 1", ev, ok)
	}
}

func TestRegistryCorrelatesByRound(t *testing.T) {
	r := NewRegistry()
	first := r.Register(ListKey(0), ListConfirmed(0, 1))
	second := r.Register(ListKey(0), ListConfirmed(0, 2))

	if first.ID() == second.ID() {
		t.Fatal("waiters share a correlation ID")
	}

	r.Dispatch(completeEvent(1, 0))
	if _, ok := first.Event(); !ok {
		t.Error("first waiter did not fire on round 1")
	}
	if _, ok := second.Event(); ok {
		t.Error("second waiter fired on a round that did not carry its change")
	}

	r.Dispatch(completeEvent(2, 0))
	if _, ok := second.Event(); !ok {
		t.Error("second waiter did not fire on round 2")
	}
}

func TestRegistrySameRoundSharesEvent(t *testing.T) {
	r := NewRegistry()
	a := r.Register(ListKey(0), ListConfirmed(0, 3))
	b := r.Register(ListKey(1), ListConfirmed(1, 3))

	if n := r.Dispatch(completeEvent(3, 0, 1)); n != 2 {
		t.Errorf("Dispatch fired %d, want 2", n)
	}
	<-a.Done()
	<-b.Done()
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	var cancelled []uuid.UUID
	r.OnCancel(func(w *Waiter) { cancelled = append(cancelled, w.ID()) })

	w := r.Register(RoomKey("!a:x"), RoomDataReceived("!a:x", 1))
	if r.PendingFor(RoomKey("!a:x")) != 1 {
		t.Fatalf("PendingFor = %d, want 1", r.PendingFor(RoomKey("!a:x")))
	}

	if !r.Cancel(w) {
		t.Error("Cancel() = false for pending waiter")
	}
	if r.Cancel(w) {
		t.Error("Cancel() = true for removed waiter")
	}
	if len(cancelled) != 1 || cancelled[0] != w.ID() {
		t.Errorf("OnCancel calls = %v", cancelled)
	}
}

func TestRegistryOnFire(t *testing.T) {
	r := NewRegistry()
	var fired []Key
	r.OnFire(func(w *Waiter) { fired = append(fired, w.Key()) })

	r.Register(RoomKey("!a:x"), RoomDataReceived("!a:x", 1))
	r.Dispatch(engine.Event{Kind: engine.EventRoomData, Round: 1, RoomID: "!a:x"})

	if len(fired) != 1 || fired[0] != RoomKey("!a:x") {
		t.Errorf("fired = %v", fired)
	}
}

func TestResolvedConfirmation(t *testing.T) {
	c := Resolved("!a:x")

	if !c.Resolved() {
		t.Error("Resolved() = false")
	}
	if c.CorrelationID() != uuid.Nil {
		t.Errorf("CorrelationID() = %v, want Nil", c.CorrelationID())
	}
	v, err := c.Wait(context.Background())
	if err != nil || v != "!a:x" {
		t.Errorf("Wait() = %q, %v", v, err)
	}
}

func TestAwaitConfirmation(t *testing.T) {
	r := NewRegistry()
	c := Await(r, ListKey(0), ListConfirmed(0, 1), 42)

	if c.Resolved() {
		t.Fatal("confirmation resolved before any event")
	}
	if c.Value() != 42 {
		t.Errorf("Value() = %d, want 42", c.Value())
	}

	go r.Dispatch(completeEvent(1, 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if v != 42 {
		t.Errorf("Wait() = %d, want 42", v)
	}
}

func TestAwaitConfirmationCancel(t *testing.T) {
	r := NewRegistry()
	c := Await(r, ListKey(0), ListConfirmed(0, 1), 42)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after cancel, want 0", r.Pending())
	}
}

func TestAwaitConfirmationFiredBeforeCancelledWait(t *testing.T) {
	r := NewRegistry()
	c := Await(r, ListKey(0), ListConfirmed(0, 1), 42)
	r.Dispatch(completeEvent(1, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := c.Wait(ctx)
	if err != nil || v != 42 {
		t.Errorf("Wait() = %d, %v; want 42, nil", v, err)
	}
}

func TestKeyString(t *testing.T) {
	if ListKey(3).String() != "list:3" {
		t.Errorf("ListKey String() = %q", ListKey(3).String())
	}
	if RoomKey("!a:x").String() != "room:!a:x" {
		t.Errorf("RoomKey String() = %q", RoomKey("!a:x").String())
	}
}
