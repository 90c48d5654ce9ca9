// Package engine defines the contract between the list coordinator and the
// sync engine that runs the long-poll loop.
//
// The engine owns networking, retries and diff application. The coordinator
// only calls its imperative setters and listens to its event stream.
//
// # Rounds
//
// Every request the engine sends is numbered. A mutating call returns the
// Round that will carry the change, and every event reports the Round it
// answers. Listeners use this to ignore responses to requests that were
// already in flight when a change was made.
//
// # Memory Engine
//
// Memory is an in-process engine with no transport. Tests and the demo
// drive it by completing rounds and delivering room data by hand:
//
//	mem := engine.NewMemory()
//	eng, _ := mem.Configure(cfg)
//	eng.SetList(0, spec)
//	mem.CompleteRound(&wire.SyncResponse{Lists: map[int]wire.ListResponse{0: {}}})
package engine
