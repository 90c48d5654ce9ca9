package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/slidingsync/ssync-go/pkg/confirm"
	"github.com/slidingsync/ssync-go/pkg/engine"
	"github.com/slidingsync/ssync-go/pkg/gate"
	"github.com/slidingsync/ssync-go/pkg/lists"
	"github.com/slidingsync/ssync-go/pkg/subscription"
	"github.com/slidingsync/ssync-go/pkg/wire"
	"maunium.net/go/mautrix/id"
)

// Coordinator errors.
var (
	ErrAlreadyConfigured = errors.New("coordinator already configured")
	ErrNotConfigured     = errors.New("coordinator not configured")
	ErrInvalidIndex      = errors.New("invalid list index")
	ErrInvalidPatch      = errors.New("invalid list patch")
	ErrClosed            = errors.New("coordinator closed")
)

// Client is the part of the local client the coordinator consults.
type Client interface {
	// UserID returns the logged in user.
	UserID() id.UserID

	// HasRoom reports whether data for the room is already cached locally.
	HasRoom(roomID id.RoomID) bool
}

// Coordinator owns the list registry, the subscription set, the search list
// allocation and the confirmation waiters of one sync session.
type Coordinator struct {
	config  Config
	factory engine.Factory
	logger  *slog.Logger
	tracer  *tracer

	ready   gate.Gate[engine.Engine]
	waiters *confirm.Registry

	// mu serializes plan, commit and engine call so local state and the
	// engine see mutations in the same order.
	mu          sync.Mutex
	client      Client
	eng         engine.Engine
	defaultList wire.ListSpec
	lists       *lists.Registry
	subs        *subscription.Set
	search      lists.SearchAllocator
	unsubscribe func()
	closed      bool
}

// New creates an unconfigured coordinator. factory builds the engine when
// Configure is called.
func New(factory engine.Factory, opts ...Option) *Coordinator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	c := &Coordinator{
		config:  cfg,
		factory: factory,
		logger:  cfg.Logger,
		tracer:  newTracer(cfg.EventLogger, cfg.SessionID),
		waiters: confirm.NewRegistry(),
		lists:   lists.NewRegistry(),
		subs:    subscription.NewSet(),
	}
	c.waiters.OnFire(c.tracer.confirmationFired)
	c.waiters.OnCancel(c.tracer.confirmationCancelled)
	return c
}

// SessionID returns the id tagging this coordinator's trace events.
func (c *Coordinator) SessionID() string {
	return c.config.SessionID
}

// Configure creates the engine for proxyURL, attaches to its events and
// releases every operation waiting for readiness. It succeeds once per
// coordinator.
func (c *Coordinator) Configure(client Client, proxyURL string) (engine.Engine, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.eng != nil {
		c.mu.Unlock()
		return nil, ErrAlreadyConfigured
	}

	eng, err := c.factory(engine.Config{
		ProxyURL:            proxyURL,
		DefaultSubscription: c.config.DefaultSubscription,
		PollTimeout:         c.config.PollTimeout,
	})
	if err != nil {
		c.mu.Unlock()
		c.tracer.error(err, "configure")
		return nil, fmt.Errorf("create engine: %w", err)
	}

	c.client = client
	c.eng = eng
	if c.config.DefaultList != nil {
		c.defaultList = c.config.DefaultList.Clone()
	} else {
		c.defaultList = DefaultListSpec(client.UserID())
	}
	c.search.Reset()
	for _, roomID := range eng.RoomSubscriptions() {
		c.subs.Add(roomID)
	}
	c.unsubscribe = eng.Subscribe(c.handleEvent)
	released := c.ready.Pending()
	c.mu.Unlock()

	c.debugLog("coordinator configured", "proxy_url", proxyURL, "released", released)
	c.tracer.gate(gate.StateUnconfigured, gate.StateConfigured, proxyURL, released)

	// Queued operations run here, in arrival order.
	if err := c.ready.Open(eng); err != nil {
		return nil, err
	}
	return eng, nil
}

// WaitReady blocks until the coordinator is configured and returns its
// engine.
func (c *Coordinator) WaitReady(ctx context.Context) (engine.Engine, error) {
	return c.ready.Wait(ctx)
}

// State returns the readiness state.
func (c *Coordinator) State() gate.State {
	return c.ready.State()
}

// Engine returns the configured engine, or nil before Configure.
func (c *Coordinator) Engine() engine.Engine {
	eng, _ := c.ready.Handle()
	return eng
}

// RegisterList makes sure list index exists with patch applied. A new index
// starts from the default list spec. The returned confirmation carries the
// resulting spec and completes once a round carrying the change returns data
// for the list; when nothing changed it is already complete.
//
// Before Configure the operation is queued and RegisterList blocks until it
// has run or ctx is done. Queued operations run in the order they were made.
func (c *Coordinator) RegisterList(ctx context.Context, index int, patch wire.ListPatch) (*confirm.Confirmation[wire.ListSpec], error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	var (
		conf  *confirm.Confirmation[wire.ListSpec]
		opErr error
	)
	err := c.whenReady(ctx, func(eng engine.Engine) {
		conf, opErr = c.registerList(eng, index, patch)
	})
	if err != nil {
		return nil, err
	}
	return conf, opErr
}

func (c *Coordinator) registerList(eng engine.Engine, index int, patch wire.ListPatch) (*confirm.Confirmation[wire.ListSpec], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	// A list the engine already carries is the base for the patch.
	if _, ok := c.lists.Get(index); !ok {
		if carried, ok := eng.List(index); ok && c.lists.Adopt(index, carried) {
			c.debugLog("list adopted from engine", "list", index)
		}
	}

	plan := c.lists.Plan(index, patch, c.defaultList)
	if plan.Op == lists.OpNone {
		c.mu.Unlock()
		c.debugLog("list matches, not sending", "list", index, "fields", patch.Fields())
		c.tracer.list(plan, patch.Fields(), 0)
		return confirm.Resolved(plan.Spec), nil
	}
	if err := plan.Spec.Validate(); err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}

	c.lists.Commit(plan)
	var round engine.Round
	switch plan.Op {
	case lists.OpSetRanges:
		round = eng.SetListRanges(index, plan.Spec.Ranges)
	default:
		round = eng.SetList(index, plan.Spec)
	}
	key := confirm.ListKey(index)
	conf := confirm.Await(c.waiters, key, confirm.ListConfirmed(index, round), plan.Spec.Clone())
	c.mu.Unlock()

	c.debugLog("list registered",
		"list", index,
		"op", plan.Op.String(),
		"created", plan.Created,
		"fields", patch.Fields(),
		"round", uint64(round))
	c.tracer.list(plan, patch.Fields(), round)
	c.tracer.confirmationRegistered(conf.CorrelationID(), key, round)
	return conf, nil
}

// EnsureListRegistered is RegisterList followed by waiting for the
// confirmation.
func (c *Coordinator) EnsureListRegistered(ctx context.Context, index int, patch wire.ListPatch) (wire.ListSpec, error) {
	conf, err := c.RegisterList(ctx, index, patch)
	if err != nil {
		return wire.ListSpec{}, err
	}
	return conf.Wait(ctx)
}

// SetRoomVisible adds roomID to or removes it from the explicit room
// subscriptions and sends the whole set to the engine. The confirmation
// completes immediately when the room is already cached locally, otherwise
// once the engine delivers data for the room.
//
// Before Configure the operation is queued like RegisterList.
func (c *Coordinator) SetRoomVisible(ctx context.Context, roomID id.RoomID, visible bool) (*confirm.Confirmation[id.RoomID], error) {
	var (
		conf  *confirm.Confirmation[id.RoomID]
		opErr error
	)
	err := c.whenReady(ctx, func(eng engine.Engine) {
		conf, opErr = c.setRoomVisible(eng, roomID, visible)
	})
	if err != nil {
		return nil, err
	}
	return conf, opErr
}

func (c *Coordinator) setRoomVisible(eng engine.Engine, roomID id.RoomID, visible bool) (*confirm.Confirmation[id.RoomID], error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	// Asked without holding mu: the client may call back into the
	// coordinator.
	cached := client.HasRoom(roomID)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	changed := c.subs.Toggle(roomID, visible)
	size := c.subs.Len()
	round := eng.ModifyRoomSubscriptions(c.subs.Rooms())

	// Data already cached, e.g. the room sits inside a list window.
	if cached {
		c.mu.Unlock()
		c.debugLog("room visibility set", "room", roomID, "visible", visible, "changed", changed, "cached", true)
		c.tracer.subscription(roomID, visible, changed, size, round, true)
		return confirm.Resolved(roomID), nil
	}

	key := confirm.RoomKey(roomID)
	conf := confirm.Await(c.waiters, key, confirm.RoomDataReceived(roomID, round), roomID)
	c.mu.Unlock()

	c.debugLog("room visibility set", "room", roomID, "visible", visible, "changed", changed, "round", uint64(round))
	c.tracer.subscription(roomID, visible, changed, size, round, false)
	c.tracer.confirmationRegistered(conf.CorrelationID(), key, round)
	return conf, nil
}

// EnsureRoomVisible is SetRoomVisible followed by waiting for the
// confirmation.
func (c *Coordinator) EnsureRoomVisible(ctx context.Context, roomID id.RoomID, visible bool) (id.RoomID, error) {
	conf, err := c.SetRoomVisible(ctx, roomID, visible)
	if err != nil {
		return "", err
	}
	return conf.Wait(ctx)
}

// whenReady runs op with the engine once the coordinator is configured and
// returns after op has run. If ctx ends while op is still queued, op is
// dropped and ctx.Err() returned.
func (c *Coordinator) whenReady(ctx context.Context, op func(engine.Engine)) error {
	done := make(chan struct{})
	stop := c.ready.Then(func(eng engine.Engine) {
		defer close(done)
		op(eng)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}
	if stop() {
		return ctx.Err()
	}
	<-done
	return nil
}

// SearchListIndex returns the list index reserved for room search. The
// first call after Configure takes the engine's current list count; later
// calls return the same index.
func (c *Coordinator) SearchListIndex() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return 0, ErrNotConfigured
	}
	fresh := !c.search.Allocated()
	idx := c.search.Index(c.eng.ListLength)
	if fresh {
		c.debugLog("search list allocated", "list", idx)
	}
	return idx, nil
}

// Lists returns a copy of every registered list spec by index.
func (c *Coordinator) Lists() map[int]wire.ListSpec {
	return c.lists.Snapshot()
}

// List returns the registered spec at index.
func (c *Coordinator) List(index int) (wire.ListSpec, bool) {
	return c.lists.Get(index)
}

// Subscriptions returns the explicitly subscribed rooms, sorted.
func (c *Coordinator) Subscriptions() []id.RoomID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs.Rooms()
}

// ListIndices returns the registered list indices in ascending order.
func (c *Coordinator) ListIndices() []int {
	return c.lists.Indices()
}

// PendingConfirmations returns the number of confirmations still waiting
// for the engine.
func (c *Coordinator) PendingConfirmations() int {
	return c.waiters.Pending()
}

// PendingListConfirmations returns the number of confirmations still
// waiting for list index.
func (c *Coordinator) PendingListConfirmations(index int) int {
	return c.waiters.PendingFor(confirm.ListKey(index))
}

// Close detaches from the engine's events. Pending confirmations stay
// pending; their waiters give up through their own contexts. Operations
// after Close return ErrClosed.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.debugLog("coordinator closed", "pending", c.waiters.Pending())
	return nil
}

// handleEvent runs on the engine's event goroutine.
func (c *Coordinator) handleEvent(ev engine.Event) {
	fired := c.waiters.Dispatch(ev)

	if ev.Kind != engine.EventLifecycle {
		return
	}
	if ev.State == wire.StateErrored {
		c.debugLog("sync round errored", "round", uint64(ev.Round), "error", ev.Err)
		c.tracer.error(ev.Err, fmt.Sprintf("round %d", ev.Round))
	}
	c.tracer.round(ev, fired)
}

func (c *Coordinator) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

