package repl

import (
	"sync"

	"github.com/slidingsync/ssync-go/pkg/coordinator"
	"maunium.net/go/mautrix/id"
)

// Cache is a client whose room cache is filled by roomdata commands.
type Cache struct {
	mu     sync.Mutex
	userID id.UserID
	rooms  map[id.RoomID]struct{}
}

// NewCache creates an empty cache for userID.
func NewCache(userID id.UserID) *Cache {
	return &Cache{userID: userID, rooms: make(map[id.RoomID]struct{})}
}

// UserID implements coordinator.Client.
func (c *Cache) UserID() id.UserID { return c.userID }

// HasRoom implements coordinator.Client.
func (c *Cache) HasRoom(roomID id.RoomID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

// Add marks rooms as cached.
func (c *Cache) Add(rooms ...id.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rooms {
		c.rooms[r] = struct{}{}
	}
}

var _ coordinator.Client = (*Cache)(nil)
