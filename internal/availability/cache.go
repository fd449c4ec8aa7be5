package availability

import (
	"sync"
	"time"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// Cache stores recently listed bookings per room and date so grid reads do
// not hit the store on every request. Staleness is bounded by the TTL; the
// engine additionally drops the touched entry after every successful commit
// or cancel. Nothing on the write path reads it.
type Cache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
}

type cacheEntry struct {
	bookings  []booking.Booking
	expiresAt time.Time
}

// NewCache constructs a Cache. Non-positive ttl and maxEntries fall back to
// 5 seconds and 256 entries; a nil clock falls back to time.Now.
func NewCache(ttl time.Duration, maxEntries int, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
	}
}

func cacheKey(roomID string, date booking.Date) string {
	return roomID + "|" + date.String()
}

// Get returns the cached bookings for the room and date, or false when the
// entry is absent or expired. Callers receive a clone and may mutate it.
func (c *Cache) Get(roomID string, date booking.Date) ([]booking.Booking, bool) {
	if c == nil {
		return nil, false
	}
	key := cacheKey(roomID, date)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneBookings(entry.bookings), true
}

// Store caches a cloned copy of the bookings for the room and date.
func (c *Cache) Store(roomID string, date booking.Date, bookings []booking.Booking) {
	if c == nil {
		return
	}
	cloned := cloneBookings(bookings)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[cacheKey(roomID, date)] = cacheEntry{bookings: cloned, expiresAt: expiry}
}

// Invalidate drops the entry for one room and date.
func (c *Cache) Invalidate(roomID string, date booking.Date) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, cacheKey(roomID, date))
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

func (c *Cache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *Cache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func cloneBookings(bookings []booking.Booking) []booking.Booking {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]booking.Booking, len(bookings))
	copy(out, bookings)
	return out
}
