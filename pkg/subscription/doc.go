// Package subscription tracks rooms a client has explicitly subscribed to
// outside of any list window.
//
// The engine's subscription API replaces the whole set on every call, so the
// Set hands out full sorted snapshots rather than deltas. Membership is
// independent of list windows: a room can be both windowed and subscribed.
//
// Subscriptions do NOT survive the coordinator instance. A new session
// starts with an empty set.
package subscription
