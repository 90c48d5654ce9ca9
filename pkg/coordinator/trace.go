package coordinator

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/slidingsync/ssync-go/pkg/confirm"
	"github.com/slidingsync/ssync-go/pkg/engine"
	"github.com/slidingsync/ssync-go/pkg/gate"
	"github.com/slidingsync/ssync-go/pkg/lists"
	"github.com/slidingsync/ssync-go/pkg/log"
	"maunium.net/go/mautrix/id"
)

// tracer turns coordinator activity into trace events. A tracer with a nil
// sink does nothing.
type tracer struct {
	sink      log.Logger
	sessionID string
	now       func() time.Time
}

func newTracer(sink log.Logger, sessionID string) *tracer {
	return &tracer{sink: sink, sessionID: sessionID, now: time.Now}
}

func (t *tracer) emit(category log.Category, fill func(*log.Event)) {
	if t.sink == nil {
		return
	}
	ev := log.Event{
		Timestamp: t.now(),
		SessionID: t.sessionID,
		Category:  category,
	}
	fill(&ev)
	t.sink.Log(ev)
}

func (t *tracer) gate(from, to gate.State, proxyURL string, released int) {
	t.emit(log.CategoryGate, func(ev *log.Event) {
		ev.Gate = &log.GateEvent{
			OldState: from.String(),
			NewState: to.String(),
			ProxyURL: proxyURL,
			Released: released,
		}
	})
}

func (t *tracer) list(plan lists.Plan, fields []string, round engine.Round) {
	t.emit(log.CategoryList, func(ev *log.Event) {
		spec := plan.Spec.Clone()
		ev.List = &log.ListEvent{
			Index:   plan.Index,
			Op:      plan.Op.String(),
			Fields:  fields,
			Spec:    &spec,
			Round:   uint64(round),
			Created: plan.Created,
		}
	})
}

func (t *tracer) subscription(roomID id.RoomID, visible, changed bool, size int, round engine.Round, fastPath bool) {
	t.emit(log.CategorySubscription, func(ev *log.Event) {
		ev.Subscription = &log.SubscriptionEvent{
			RoomID:   roomID.String(),
			Visible:  visible,
			Changed:  changed,
			Size:     size,
			Round:    uint64(round),
			FastPath: fastPath,
		}
	})
}

func (t *tracer) confirmationRegistered(correlationID uuid.UUID, key confirm.Key, round engine.Round) {
	t.emit(log.CategoryConfirmation, func(ev *log.Event) {
		ev.Confirmation = &log.ConfirmationEvent{
			CorrelationID: correlationID.String(),
			Key:           key.String(),
			Action:        log.ConfirmRegistered,
			Round:         uint64(round),
		}
	})
}

func (t *tracer) confirmationFired(w *confirm.Waiter) {
	t.emit(log.CategoryConfirmation, func(ev *log.Event) {
		waited := t.now().Sub(w.Registered())
		fired, _ := w.Event()
		ev.Confirmation = &log.ConfirmationEvent{
			CorrelationID: w.ID().String(),
			Key:           w.Key().String(),
			Action:        log.ConfirmFired,
			Round:         uint64(fired.Round),
			Waited:        &waited,
		}
	})
}

func (t *tracer) confirmationCancelled(w *confirm.Waiter) {
	t.emit(log.CategoryConfirmation, func(ev *log.Event) {
		waited := t.now().Sub(w.Registered())
		ev.Confirmation = &log.ConfirmationEvent{
			CorrelationID: w.ID().String(),
			Key:           w.Key().String(),
			Action:        log.ConfirmCancelled,
			Waited:        &waited,
		}
	})
}

func (t *tracer) round(e engine.Event, fired int) {
	t.emit(log.CategoryRound, func(ev *log.Event) {
		r := &log.RoundEvent{
			Round: uint64(e.Round),
			State: e.State.String(),
			Fired: fired,
		}
		if e.Response != nil {
			r.Pos = e.Response.Pos
			for idx := range e.Response.Lists {
				r.Lists = append(r.Lists, idx)
			}
			sort.Ints(r.Lists)
		}
		ev.Round = r
	})
}

func (t *tracer) error(err error, context string) {
	if err == nil {
		return
	}
	t.emit(log.CategoryError, func(ev *log.Event) {
		ev.Error = &log.ErrorEventData{
			Message: err.Error(),
			Context: context,
		}
	})
}
