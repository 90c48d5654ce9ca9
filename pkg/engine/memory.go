package engine

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// Memory engine errors.
var (
	ErrAlreadyConfigured = errors.New("engine already configured")
	ErrNoProxyURL        = errors.New("proxy URL is required")
)

// Call records one mutating call made on a Memory engine.
type Call struct {
	Method string
	Index  int
	Spec   wire.ListSpec
	Ranges []wire.Range
	Rooms  []id.RoomID
	Round  Round
}

// Method names recorded in Call.Method.
const (
	MethodSetList                 = "SetList"
	MethodSetListRanges           = "SetListRanges"
	MethodModifyRoomSubscriptions = "ModifyRoomSubscriptions"
)

type handlerEntry struct {
	id uint64
	fn func(Event)
}

// Memory is an Engine without a transport. Rounds complete only when
// CompleteRound is called.
type Memory struct {
	mu sync.Mutex

	config     Config
	configured bool

	lists map[int]wire.ListSpec
	rooms []id.RoomID

	// round is the request currently being built; mutations ride on it.
	round Round
	pos   int

	handlers      []handlerEntry
	nextHandlerID uint64

	calls []Call
}

// NewMemory creates an unconfigured in-memory engine.
func NewMemory() *Memory {
	return &Memory{
		lists: make(map[int]wire.ListSpec),
		round: 1,
	}
}

// Configure applies cfg and returns the engine. It has the Factory
// signature so a Memory can be handed to a coordinator as mem.Configure.
func (m *Memory) Configure(cfg Config) (Engine, error) {
	if cfg.ProxyURL == "" {
		return nil, ErrNoProxyURL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.configured {
		return nil, ErrAlreadyConfigured
	}
	m.configured = true
	m.config = cfg
	for idx, spec := range cfg.InitialLists {
		m.lists[idx] = spec.Clone()
	}
	return m, nil
}

// Config returns the configuration passed to Configure.
func (m *Memory) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// List implements Engine.
func (m *Memory) List(index int) (wire.ListSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec, ok := m.lists[index]
	if !ok {
		return wire.ListSpec{}, false
	}
	return spec.Clone(), true
}

// SetList implements Engine.
func (m *Memory) SetList(index int, spec wire.ListSpec) Round {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists[index] = spec.Clone()
	m.calls = append(m.calls, Call{
		Method: MethodSetList,
		Index:  index,
		Spec:   spec.Clone(),
		Round:  m.round,
	})
	return m.round
}

// SetListRanges implements Engine. Ranges on an unknown index are recorded
// but not stored, as a real engine would drop them.
func (m *Memory) SetListRanges(index int, ranges []wire.Range) Round {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec, ok := m.lists[index]; ok {
		spec.Ranges = slices.Clone(ranges)
		m.lists[index] = spec
	}
	m.calls = append(m.calls, Call{
		Method: MethodSetListRanges,
		Index:  index,
		Ranges: slices.Clone(ranges),
		Round:  m.round,
	})
	return m.round
}

// RoomSubscriptions implements Engine.
func (m *Memory) RoomSubscriptions() []id.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rooms)
}

// ModifyRoomSubscriptions implements Engine.
func (m *Memory) ModifyRoomSubscriptions(rooms []id.RoomID) Round {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms = slices.Clone(rooms)
	m.calls = append(m.calls, Call{
		Method: MethodModifyRoomSubscriptions,
		Rooms:  slices.Clone(rooms),
		Round:  m.round,
	})
	return m.round
}

// ListLength implements Engine.
func (m *Memory) ListLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lists)
}

// Subscribe implements Engine. Handlers run synchronously in subscription
// order on the goroutine that completes the round.
func (m *Memory) Subscribe(handler func(Event)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextHandlerID++
	hid := m.nextHandlerID
	m.handlers = append(m.handlers, handlerEntry{id: hid, fn: handler})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.handlers = slices.DeleteFunc(m.handlers, func(h handlerEntry) bool {
			return h.id == hid
		})
	}
}

// Round returns the round that the next mutation will ride on.
func (m *Memory) Round() Round {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.round
}

// CompleteRound finishes the current round with resp. It emits
// RequestFinished, one RoomData event per room in resp, then Complete, and
// advances to the next round. A nil resp reports every registered list and
// no rooms.
func (m *Memory) CompleteRound(resp *wire.SyncResponse) Round {
	m.mu.Lock()
	round := m.round
	m.pos++
	if resp == nil {
		resp = &wire.SyncResponse{Lists: make(map[int]wire.ListResponse, len(m.lists))}
		for idx := range m.lists {
			resp.Lists[idx] = wire.ListResponse{}
		}
	}
	if resp.Pos == "" {
		resp.Pos = fmt.Sprintf("%d", m.pos)
	}
	m.round++
	handlers := slices.Clone(m.handlers)
	m.mu.Unlock()

	emit(handlers, Event{Kind: EventLifecycle, Round: round, State: wire.StateRequestFinished, Response: resp})

	rooms := make([]id.RoomID, 0, len(resp.Rooms))
	for roomID := range resp.Rooms {
		rooms = append(rooms, roomID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	for _, roomID := range rooms {
		emit(handlers, Event{Kind: EventRoomData, Round: round, RoomID: roomID})
	}

	emit(handlers, Event{Kind: EventLifecycle, Round: round, State: wire.StateComplete, Response: resp})
	return round
}

// FailRound reports the current round as errored. The round is not
// advanced: the retry carries the same mutations.
func (m *Memory) FailRound(err error) Round {
	m.mu.Lock()
	round := m.round
	handlers := slices.Clone(m.handlers)
	m.mu.Unlock()

	emit(handlers, Event{Kind: EventLifecycle, Round: round, State: wire.StateErrored, Err: err})
	return round
}

// Calls returns the recorded mutating calls in order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many calls of method were recorded.
func (m *Memory) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// ResetCalls clears the recorded calls.
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func emit(handlers []handlerEntry, ev Event) {
	for _, h := range handlers {
		h.fn(ev)
	}
}

// Compile-time interface satisfaction check.
var _ Engine = (*Memory)(nil)
