// Package wire defines the sliding sync request and response types shared by
// the coordinator and the sync engine.
//
// The types follow the MSC3575 request body: a list is described by its
// ranges, sort order, required state, timeline limit and filters. Room
// subscriptions carry their own required state and timeline limit.
//
// # Encoding
//
// JSON tags use the MSC3575 field names. CBOR encoding uses integer keys and
// a canonical (deterministic) encoder, which also backs spec equality:
// two list specs are equal when their canonical encodings are equal.
//
// # Patches
//
// A ListPatch names exactly the mutable list fields, each optional:
//   - Field nil: keep the current value
//   - Field set: replace the current value (an empty slice is a real value)
package wire
