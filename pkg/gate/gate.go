package gate

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyOpen is returned by a second call to Open.
var ErrAlreadyOpen = errors.New("gate already open")

// State is the gate state.
type State uint8

const (
	// StateUnconfigured - Wait blocks.
	StateUnconfigured State = iota

	// StateConfigured - Wait returns immediately.
	StateConfigured
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "UNCONFIGURED"
	case StateConfigured:
		return "CONFIGURED"
	default:
		return "UNKNOWN"
	}
}

// waiter is one queued continuation: either a blocked Wait (ch) or a
// callback registered with Then (fn).
type waiter[H any] struct {
	ch chan struct{}
	fn func(H)
}

// Gate holds back callers until a handle of type H is supplied.
// The zero value is an unconfigured gate ready for use.
type Gate[H any] struct {
	mu      sync.Mutex
	state   State
	opening bool
	handle  H
	pending []*waiter[H]
}

// Open stores handle, releases every queued waiter in arrival order and
// moves the gate to StateConfigured. Callbacks registered with Then run on
// the calling goroutine before Open returns.
//
// Waiters that arrive while Open is releasing the queue are appended to it,
// so they run after everything queued before them. The state changes only
// once the queue is empty.
func (g *Gate[H]) Open(handle H) error {
	g.mu.Lock()
	if g.state == StateConfigured || g.opening {
		g.mu.Unlock()
		return ErrAlreadyOpen
	}
	g.opening = true
	g.handle = handle
	g.mu.Unlock()

	for {
		g.mu.Lock()
		if len(g.pending) == 0 {
			g.state = StateConfigured
			g.opening = false
			g.mu.Unlock()
			return nil
		}
		w := g.pending[0]
		g.pending = g.pending[1:]
		g.mu.Unlock()

		if w.fn != nil {
			w.fn(handle)
			continue
		}
		close(w.ch)
	}
}

// Then runs fn with the handle once the gate is open. If the gate is
// already open fn runs immediately on the calling goroutine.
//
// The returned stop function dequeues fn if it has not been released yet
// and reports whether it did so.
func (g *Gate[H]) Then(fn func(H)) (stop func() bool) {
	g.mu.Lock()
	if g.state == StateConfigured {
		h := g.handle
		g.mu.Unlock()
		fn(h)
		return func() bool { return false }
	}
	w := &waiter[H]{fn: fn}
	g.pending = append(g.pending, w)
	g.mu.Unlock()

	return func() bool { return g.remove(w) }
}

// Wait returns the handle once the gate is open. It blocks until Open is
// called or ctx is done.
func (g *Gate[H]) Wait(ctx context.Context) (H, error) {
	g.mu.Lock()
	if g.state == StateConfigured {
		h := g.handle
		g.mu.Unlock()
		return h, nil
	}
	w := &waiter[H]{ch: make(chan struct{})}
	g.pending = append(g.pending, w)
	g.mu.Unlock()

	select {
	case <-w.ch:
		g.mu.Lock()
		h := g.handle
		g.mu.Unlock()
		return h, nil
	case <-ctx.Done():
		g.remove(w)
		var zero H
		return zero, ctx.Err()
	}
}

// Handle returns the handle without waiting. ok is false while unconfigured.
func (g *Gate[H]) Handle() (h H, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handle, g.state == StateConfigured
}

// State returns the current state.
func (g *Gate[H]) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Pending returns the number of queued waiters.
func (g *Gate[H]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

func (g *Gate[H]) remove(w *waiter[H]) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.pending {
		if p == w {
			g.pending = append(g.pending[:i], g.pending[i+1:]...)
			return true
		}
	}
	return false
}
