package coordinator

import (
	"log/slog"
	"time"

	"github.com/slidingsync/ssync-go/pkg/log"
	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// DefaultPollTimeout is how long the engine long-polls per round.
const DefaultPollTimeout = 20 * time.Second

// Config configures a Coordinator.
type Config struct {
	// PollTimeout is passed to the engine as its long-poll timeout.
	PollTimeout time.Duration

	// DefaultList, when set, replaces DefaultListSpec as the base of new
	// lists. It is used as given: the member state key is not rewritten.
	DefaultList *wire.ListSpec

	// DefaultSubscription is the per-room request for explicitly subscribed
	// rooms.
	DefaultSubscription wire.RoomSubscription

	// SessionID tags every trace event. Generated when empty.
	SessionID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives the structured coordinator trace.
	// If nil, tracing is disabled.
	EventLogger log.Logger
}

// DefaultConfig returns a Config with the standard poll timeout and room
// subscription.
func DefaultConfig() Config {
	return Config{
		PollTimeout:         DefaultPollTimeout,
		DefaultSubscription: DefaultRoomSubscription(),
	}
}

// DefaultListSpec returns the spec new lists start from: the first 21 rooms
// by highlight, notification and recency, the latest event of each, and the
// state needed to render a room list entry for userID.
func DefaultListSpec(userID id.UserID) wire.ListSpec {
	return wire.ListSpec{
		Ranges: []wire.Range{wire.NewRange(0, 20)},
		Sort: []string{
			wire.SortByHighlightCount,
			wire.SortByNotificationCount,
			wire.SortByRecency,
		},
		TimelineLimit: 1,
		RequiredState: []wire.StateKey{
			wire.NewStateKey(event.StateJoinRules.Type, ""),
			wire.NewStateKey(event.StateRoomAvatar.Type, ""),
			wire.NewStateKey(event.StateTombstone.Type, ""),
			wire.NewStateKey(event.StateEncryption.Type, ""),
			wire.NewStateKey(event.StateCreate.Type, ""),
			wire.NewStateKey(event.StateMember.Type, userID.String()),
		},
	}
}

// DefaultRoomSubscription requests all state and the last 50 timeline
// events of an explicitly subscribed room.
func DefaultRoomSubscription() wire.RoomSubscription {
	return wire.RoomSubscription{
		RequiredState: []wire.StateKey{wire.NewStateKey(wire.Wildcard, wire.Wildcard)},
		TimelineLimit: 50,
	}
}

// Option modifies a Config.
type Option func(*Config)

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithEventLogger sets the trace logger.
func WithEventLogger(logger log.Logger) Option {
	return func(c *Config) {
		c.EventLogger = logger
	}
}

// WithPollTimeout sets the engine long-poll timeout.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.PollTimeout = d
	}
}

// WithDefaultList replaces the base spec for new lists.
func WithDefaultList(spec wire.ListSpec) Option {
	return func(c *Config) {
		s := spec.Clone()
		c.DefaultList = &s
	}
}

// WithDefaultSubscription replaces the per-room subscription request.
func WithDefaultSubscription(sub wire.RoomSubscription) Option {
	return func(c *Config) {
		c.DefaultSubscription = sub
	}
}

// WithSessionID sets the session id used in trace events.
func WithSessionID(sessionID string) Option {
	return func(c *Config) {
		c.SessionID = sessionID
	}
}
