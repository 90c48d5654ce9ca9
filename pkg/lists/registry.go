package lists

import (
	"sort"
	"sync"

	"github.com/slidingsync/ssync-go/pkg/wire"
)

// Op is the engine call a plan needs.
type Op uint8

const (
	// OpNone - the merged spec equals the current spec.
	OpNone Op = iota

	// OpSetList - replace the whole list.
	OpSetList

	// OpSetRanges - update only the ranges.
	OpSetRanges
)

// String returns the op name.
func (o Op) String() string {
	switch o {
	case OpNone:
		return "NONE"
	case OpSetList:
		return "SET_LIST"
	case OpSetRanges:
		return "SET_RANGES"
	default:
		return "UNKNOWN"
	}
}

// Plan is the outcome of merging a patch into the registry.
type Plan struct {
	Index int
	Op    Op

	// Spec is the spec after the patch: the merged spec, or the current one
	// for OpNone.
	Spec wire.ListSpec

	// Created is true when the index had no spec before.
	Created bool
}

// Registry maps list indices to their specs.
type Registry struct {
	mu    sync.RWMutex
	lists map[int]wire.ListSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lists: make(map[int]wire.ListSpec)}
}

// Plan decides what registering patch at index requires. defaults is used
// when the index is new. The registry is not modified.
func (r *Registry) Plan(index int, patch wire.ListPatch, defaults wire.ListSpec) Plan {
	r.mu.RLock()
	current, exists := r.lists[index]
	r.mu.RUnlock()

	if !exists {
		return Plan{
			Index:   index,
			Op:      OpSetList,
			Spec:    patch.Apply(defaults),
			Created: true,
		}
	}

	if patch.IsEmpty() {
		return Plan{Index: index, Op: OpNone, Spec: current.Clone()}
	}
	merged := patch.Apply(current)
	if merged.Equal(current) {
		return Plan{Index: index, Op: OpNone, Spec: current.Clone()}
	}

	op := OpSetList
	if patch.RangesOnly() {
		op = OpSetRanges
	}
	return Plan{Index: index, Op: op, Spec: merged}
}

// Adopt records spec at index when the index is not registered yet, e.g. a
// list the engine already carries. It reports whether spec was stored.
func (r *Registry) Adopt(index int, spec wire.ListSpec) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lists[index]; ok {
		return false
	}
	r.lists[index] = spec.Clone()
	return true
}

// Commit stores the plan's spec. OpNone plans are ignored.
func (r *Registry) Commit(p Plan) {
	if p.Op == OpNone {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists[p.Index] = p.Spec.Clone()
}

// Get returns the spec at index.
func (r *Registry) Get(index int) (wire.ListSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.lists[index]
	if !ok {
		return wire.ListSpec{}, false
	}
	return spec.Clone(), true
}

// Len returns the number of registered lists.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lists)
}

// Indices returns the registered indices in ascending order.
func (r *Registry) Indices() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.lists))
	for idx := range r.lists {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Snapshot returns a copy of every registered spec.
func (r *Registry) Snapshot() map[int]wire.ListSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int]wire.ListSpec, len(r.lists))
	for idx, spec := range r.lists {
		out[idx] = spec.Clone()
	}
	return out
}
