package confirm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slidingsync/ssync-go/pkg/engine"
	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// KeyKind distinguishes list keys from room keys.
type KeyKind uint8

const (
	KeyList KeyKind = iota
	KeyRoom
)

// Key identifies what a waiter is waiting for.
type Key struct {
	Kind KeyKind
	List int
	Room id.RoomID
}

// ListKey returns the key for a list index.
func ListKey(index int) Key {
	return Key{Kind: KeyList, List: index}
}

// RoomKey returns the key for a room.
func RoomKey(roomID id.RoomID) Key {
	return Key{Kind: KeyRoom, Room: roomID}
}

func (k Key) String() string {
	if k.Kind == KeyRoom {
		return "room:" + string(k.Room)
	}
	return fmt.Sprintf("list:%d", k.List)
}

// Predicate reports whether an engine event satisfies a waiter.
type Predicate func(engine.Event) bool

// ListConfirmed matches a completed round at or after round whose response
// carries data for the list index.
func ListConfirmed(index int, round engine.Round) Predicate {
	return func(ev engine.Event) bool {
		return ev.Kind == engine.EventLifecycle &&
			ev.State == wire.StateComplete &&
			ev.Round >= round &&
			ev.Response.HasList(index)
	}
}

// RoomDataReceived matches room data for roomID from a round at or after
// round.
func RoomDataReceived(roomID id.RoomID, round engine.Round) Predicate {
	return func(ev engine.Event) bool {
		return ev.Kind == engine.EventRoomData &&
			ev.RoomID == roomID &&
			ev.Round >= round
	}
}

// Waiter is a one-shot registration that fires on the first matching event.
type Waiter struct {
	id         uuid.UUID
	key        Key
	match      Predicate
	registered time.Time

	done  chan struct{}
	event engine.Event
}

// ID returns the correlation ID.
func (w *Waiter) ID() uuid.UUID { return w.id }

// Key returns the key the waiter was registered under.
func (w *Waiter) Key() Key { return w.key }

// Registered returns the registration time.
func (w *Waiter) Registered() time.Time { return w.registered }

// Done is closed when the waiter fires.
func (w *Waiter) Done() <-chan struct{} { return w.done }

// Event returns the event that fired the waiter. ok is false until then.
func (w *Waiter) Event() (ev engine.Event, ok bool) {
	select {
	case <-w.done:
		return w.event, true
	default:
		return engine.Event{}, false
	}
}

// Registry holds the pending waiters of one coordinator.
type Registry struct {
	mu      sync.Mutex
	pending []*Waiter

	onFire   func(*Waiter)
	onCancel func(*Waiter)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnFire sets a callback invoked after a waiter fires.
func (r *Registry) OnFire(fn func(*Waiter)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFire = fn
}

// OnCancel sets a callback invoked after a waiter is cancelled.
func (r *Registry) OnCancel(fn func(*Waiter)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCancel = fn
}

// Register adds a waiter for key that fires on the first event matching.
func (r *Registry) Register(key Key, match Predicate) *Waiter {
	w := &Waiter{
		id:         uuid.New(),
		key:        key,
		match:      match,
		registered: time.Now(),
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	r.pending = append(r.pending, w)
	r.mu.Unlock()
	return w
}

// Dispatch offers ev to every pending waiter in registration order and fires
// those that match. It returns the number of waiters fired.
func (r *Registry) Dispatch(ev engine.Event) int {
	r.mu.Lock()
	var fired []*Waiter
	remaining := r.pending[:0]
	for _, w := range r.pending {
		if w.match(ev) {
			fired = append(fired, w)
			continue
		}
		remaining = append(remaining, w)
	}
	for i := len(remaining); i < len(r.pending); i++ {
		r.pending[i] = nil
	}
	r.pending = remaining
	onFire := r.onFire
	r.mu.Unlock()

	for _, w := range fired {
		w.event = ev
		close(w.done)
		if onFire != nil {
			onFire(w)
		}
	}
	return len(fired)
}

// Cancel removes a pending waiter without firing it. It reports whether the
// waiter was still pending.
func (r *Registry) Cancel(w *Waiter) bool {
	r.mu.Lock()
	found := false
	for i, p := range r.pending {
		if p == w {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			found = true
			break
		}
	}
	onCancel := r.onCancel
	r.mu.Unlock()

	if found && onCancel != nil {
		onCancel(w)
	}
	return found
}

// Pending returns the number of pending waiters.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// PendingFor returns the number of pending waiters registered under key.
func (r *Registry) PendingFor(key Key) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, w := range r.pending {
		if w.key == key {
			n++
		}
	}
	return n
}
