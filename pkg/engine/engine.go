package engine

import (
	"time"

	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// Round numbers the requests an engine sends. Rounds start at 1.
type Round uint64

// EventKind distinguishes the engine's event types.
type EventKind uint8

const (
	// EventLifecycle reports progress of one sync round.
	EventLifecycle EventKind = iota

	// EventRoomData reports that fresh data for a room was received.
	EventRoomData
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventLifecycle:
		return "LIFECYCLE"
	case EventRoomData:
		return "ROOM_DATA"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted by an engine to its subscribers.
type Event struct {
	Kind EventKind

	// Round is the request this event answers.
	Round Round

	// Lifecycle events only.
	State    wire.LifecycleState
	Response *wire.SyncResponse
	Err      error

	// RoomData events only.
	RoomID id.RoomID
}

// Engine is the sync engine as seen by the coordinator.
type Engine interface {
	// List returns the spec registered at index.
	List(index int) (wire.ListSpec, bool)

	// SetList replaces the list at index.
	SetList(index int, spec wire.ListSpec) Round

	// SetListRanges changes only the ranges of an existing list.
	SetListRanges(index int, ranges []wire.Range) Round

	// RoomSubscriptions returns the current explicit room subscriptions.
	RoomSubscriptions() []id.RoomID

	// ModifyRoomSubscriptions replaces the room subscriptions with rooms.
	ModifyRoomSubscriptions(rooms []id.RoomID) Round

	// ListLength returns the number of lists registered with the engine.
	ListLength() int

	// Subscribe registers handler for all events and returns a function
	// that removes it.
	Subscribe(handler func(Event)) (unsubscribe func())
}

// Config configures a new engine.
type Config struct {
	// ProxyURL is the sliding sync endpoint.
	ProxyURL string

	// InitialLists are registered before the first request.
	InitialLists map[int]wire.ListSpec

	// DefaultSubscription is requested for every subscribed room.
	DefaultSubscription wire.RoomSubscription

	// PollTimeout is the server-side long-poll timeout.
	PollTimeout time.Duration
}

// Factory creates an engine from a configuration.
type Factory func(cfg Config) (Engine, error)
