// Package confirm turns fire-and-forget engine calls into awaitable
// confirmations.
//
// A Waiter is registered under a Key (a list index or a room) with a
// predicate over engine events. The Registry is fed every engine event via
// Dispatch; each pending waiter whose predicate matches fires once and is
// removed. Every waiter carries its own correlation ID, so two requests for
// the same key are tracked and logged independently.
//
// Predicates built with ListConfirmed and RoomDataReceived only accept
// events for rounds at or after the round that carried the change:
//
//	round := eng.SetList(0, spec)
//	c := confirm.Await(reg, confirm.ListKey(0), confirm.ListConfirmed(0, round), spec)
//	spec, err := c.Wait(ctx)
package confirm
