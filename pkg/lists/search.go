package lists

import "sync"

// SearchAllocator reserves one list index for room search results.
//
// The index is positional: it is the number of lists registered when Index
// is first called, so callers must register all room lists first.
type SearchAllocator struct {
	mu        sync.Mutex
	allocated bool
	index     int
}

// Index returns the search list index, allocating it from length() on the
// first call. Index 0 is a valid allocation.
func (a *SearchAllocator) Index(length func() int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.allocated {
		a.index = length()
		a.allocated = true
	}
	return a.index
}

// Allocated reports whether an index has been reserved.
func (a *SearchAllocator) Allocated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

// Reset forgets the reserved index.
func (a *SearchAllocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allocated = false
	a.index = 0
}
