package subscription

import (
	"slices"
	"sync"

	"maunium.net/go/mautrix/id"
)

// Set is a set of room IDs. The zero value is an empty set ready for use.
type Set struct {
	mu    sync.RWMutex
	rooms map[id.RoomID]struct{}
}

// NewSet creates a set holding rooms.
func NewSet(rooms ...id.RoomID) *Set {
	s := &Set{}
	for _, r := range rooms {
		s.Add(r)
	}
	return s
}

// Add inserts roomID and reports whether it was absent.
func (s *Set) Add(roomID id.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms == nil {
		s.rooms = make(map[id.RoomID]struct{})
	}
	if _, ok := s.rooms[roomID]; ok {
		return false
	}
	s.rooms[roomID] = struct{}{}
	return true
}

// Remove deletes roomID and reports whether it was present.
func (s *Set) Remove(roomID id.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

// Toggle adds roomID when visible is true and removes it otherwise.
// It reports whether membership changed.
func (s *Set) Toggle(roomID id.RoomID, visible bool) bool {
	if visible {
		return s.Add(roomID)
	}
	return s.Remove(roomID)
}

// Has reports whether roomID is in the set.
func (s *Set) Has(roomID id.RoomID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[roomID]
	return ok
}

// Len returns the number of rooms.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Rooms returns the rooms sorted by ID. The result is never nil.
func (s *Set) Rooms() []id.RoomID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.RoomID, 0, len(s.rooms))
	for r := range s.rooms {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}
