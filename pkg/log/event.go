package log

import (
	"strings"
	"time"

	"github.com/slidingsync/ssync-go/pkg/wire"
)

// Event is one coordinator trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the coordinator instance (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Gate         *GateEvent         `cbor:"10,keyasint,omitempty"`
	List         *ListEvent         `cbor:"11,keyasint,omitempty"`
	Subscription *SubscriptionEvent `cbor:"12,keyasint,omitempty"`
	Confirmation *ConfirmationEvent `cbor:"13,keyasint,omitempty"`
	Round        *RoundEvent        `cbor:"14,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"15,keyasint,omitempty"`
}

// Category classifies trace events.
type Category uint8

const (
	CategoryGate         Category = 0
	CategoryList         Category = 1
	CategorySubscription Category = 2
	CategoryConfirmation Category = 3
	CategoryRound        Category = 4
	CategoryError        Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryGate:
		return "GATE"
	case CategoryList:
		return "LIST"
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategoryConfirmation:
		return "CONFIRMATION"
	case CategoryRound:
		return "ROUND"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category whose String() form matches name,
// ignoring case.
func ParseCategory(name string) (Category, bool) {
	for c := CategoryGate; c <= CategoryError; c++ {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}
	return 0, false
}

// GateEvent captures the readiness gate transition.
type GateEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`

	// ProxyURL is the engine endpoint the coordinator was configured with.
	ProxyURL string `cbor:"3,keyasint,omitempty"`

	// Released is the number of queued operations the transition released.
	Released int `cbor:"4,keyasint,omitempty"`
}

// ListEvent captures one list registration decision.
type ListEvent struct {
	Index int `cbor:"1,keyasint"`

	// Op is the engine call chosen (NONE, SET_LIST, SET_RANGES).
	Op string `cbor:"2,keyasint"`

	// Fields lists the patch fields that were set.
	Fields []string `cbor:"3,keyasint,omitempty"`

	// Spec is the spec after the patch.
	Spec *wire.ListSpec `cbor:"4,keyasint,omitempty"`

	// Round carrying the change (0 for NONE).
	Round uint64 `cbor:"5,keyasint,omitempty"`

	Created bool `cbor:"6,keyasint,omitempty"`
}

// SubscriptionEvent captures one room visibility change.
type SubscriptionEvent struct {
	RoomID  string `cbor:"1,keyasint"`
	Visible bool   `cbor:"2,keyasint"`

	// Changed is false when the set already had the requested membership.
	Changed bool `cbor:"3,keyasint,omitempty"`

	// Size of the subscription set after the change.
	Size int `cbor:"4,keyasint"`

	Round uint64 `cbor:"5,keyasint,omitempty"`

	// FastPath is true when room data was already cached.
	FastPath bool `cbor:"6,keyasint,omitempty"`
}

// ConfirmAction is what happened to a confirmation waiter.
type ConfirmAction uint8

const (
	ConfirmRegistered ConfirmAction = 0
	ConfirmFired      ConfirmAction = 1
	ConfirmCancelled  ConfirmAction = 2
)

// String returns the action name.
func (a ConfirmAction) String() string {
	switch a {
	case ConfirmRegistered:
		return "REGISTERED"
	case ConfirmFired:
		return "FIRED"
	case ConfirmCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ConfirmationEvent captures the lifecycle of a confirmation waiter.
type ConfirmationEvent struct {
	CorrelationID string        `cbor:"1,keyasint"`
	Key           string        `cbor:"2,keyasint"`
	Action        ConfirmAction `cbor:"3,keyasint"`

	// Round is the round awaited (registered) or the round that fired it.
	Round uint64 `cbor:"4,keyasint,omitempty"`

	// Waited is the time from registration to fire or cancel (nanoseconds).
	Waited *time.Duration `cbor:"5,keyasint,omitempty"`
}

// RoundEvent captures a sync round observed from the engine.
type RoundEvent struct {
	Round uint64 `cbor:"1,keyasint"`
	State string `cbor:"2,keyasint"`
	Pos   string `cbor:"3,keyasint,omitempty"`

	// Lists carried in the response.
	Lists []int `cbor:"4,keyasint,omitempty"`

	// Fired is the number of confirmations the round satisfied.
	Fired int `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures an error reported by the engine or an operation.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`
	Context string `cbor:"2,keyasint,omitempty"`
	Round   uint64 `cbor:"3,keyasint,omitempty"`
}
