package confirm

import (
	"context"

	"github.com/google/uuid"
)

// closed is a channel that is always closed, shared by resolved
// confirmations.
var closed = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Confirmation is the result of a mutating coordinator call. It completes
// when its waiter fires, or immediately when no round trip is needed.
type Confirmation[T any] struct {
	value    T
	waiter   *Waiter
	registry *Registry
}

// Resolved returns a confirmation that is already complete.
func Resolved[T any](value T) *Confirmation[T] {
	return &Confirmation[T]{value: value}
}

// Await registers a waiter for key and returns a confirmation that
// completes with value once the waiter fires.
func Await[T any](r *Registry, key Key, match Predicate, value T) *Confirmation[T] {
	return &Confirmation[T]{
		value:    value,
		waiter:   r.Register(key, match),
		registry: r,
	}
}

// Done is closed when the confirmation completes.
func (c *Confirmation[T]) Done() <-chan struct{} {
	if c.waiter == nil {
		return closed
	}
	return c.waiter.Done()
}

// Resolved reports whether the confirmation has completed.
func (c *Confirmation[T]) Resolved() bool {
	select {
	case <-c.Done():
		return true
	default:
		return false
	}
}

// Value returns the value the confirmation completes with, without waiting.
func (c *Confirmation[T]) Value() T {
	return c.value
}

// CorrelationID returns the waiter's correlation ID, or uuid.Nil when the
// confirmation was resolved without a round trip.
func (c *Confirmation[T]) CorrelationID() uuid.UUID {
	if c.waiter == nil {
		return uuid.Nil
	}
	return c.waiter.ID()
}

// Wait blocks until the confirmation completes or ctx is done. Giving up
// through ctx removes the waiter.
func (c *Confirmation[T]) Wait(ctx context.Context) (T, error) {
	if c.waiter == nil {
		return c.value, nil
	}

	select {
	case <-c.Done():
		return c.value, nil
	case <-ctx.Done():
	}

	// Not pending any more means it fired while ctx was being cancelled.
	if !c.registry.Cancel(c.waiter) {
		<-c.Done()
		return c.value, nil
	}
	var zero T
	return zero, ctx.Err()
}
