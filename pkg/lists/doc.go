// Package lists tracks the sliding window lists a client has registered and
// decides which engine call a change needs.
//
// Registry.Plan is a pure decision over the current state:
//
//   - unknown index: defaults overlaid with the patch, full SetList
//   - known index, merge equal to current: nothing to send
//   - known index, only ranges changed: SetListRanges
//   - anything else: full SetList with the merged spec
//
// Registry.Commit stores the result. The coordinator commits before it calls
// the engine, so local state is always ahead of what the server confirmed.
package lists
