// Package coordinator keeps a client's sliding window lists and explicit
// room subscriptions in step with a sync engine.
//
// A Coordinator is created unconfigured. Every operation waits behind a
// readiness gate until Configure supplies the client and the engine
// endpoint; operations issued earlier are released in the order they were
// made.
//
//	c := coordinator.New(httpEngineFactory, coordinator.WithLogger(logger))
//	go func() {
//		spec, err := c.EnsureListRegistered(ctx, 0, wire.ListPatch{}.WithRanges(wire.NewRange(0, 49)))
//		...
//	}()
//	eng, err := c.Configure(client, "https://proxy.example.org")
//
// Mutating operations return a confirmation that completes once a sync
// round carrying the change has been processed. A confirmation is tied to
// the round its change was sent on, so a response to an earlier request
// never confirms a later change.
package coordinator
