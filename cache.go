package transitrelay

import (
	"fmt"
	"sync"
	"time"
)

// Cache holds the single most recent normalized snapshot. One mutex guards
// the snapshot/timestamp pair and the updating flag together so a reader
// never observes a torn combination. Snapshots are replaced wholesale,
// never mutated in place.
type Cache struct {
	mu sync.Mutex

	now           func() time.Time
	duration      time.Duration
	fallbackTrain string

	snapshot  *Snapshot
	timestamp time.Time
	updating  bool
}

// CacheStats is a point-in-time view of cache metadata for the health and
// cache-status endpoints.
type CacheStats struct {
	HasData    bool
	AgeSeconds int
	IsUpdating bool
	LastUpdate string
}

// NewCache creates a cache seeded with the startup placeholder so the
// service can answer requests before the first real fetch completes.
// now may be nil for the real clock; tests inject a fake one.
func NewCache(duration time.Duration, fallbackTrain string, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	c := &Cache{
		now:           now,
		duration:      duration,
		fallbackTrain: fallbackTrain,
	}
	c.snapshot = StartupSnapshot(now())
	c.timestamp = now()
	return c
}

// Read returns the best available snapshot and a label describing where it
// came from. It never fails: any internal panic degrades to a minimal
// safe snapshot labeled "cache_error".
func (c *Cache) Read() (snap *Snapshot, source string) {
	defer func() {
		if p := recover(); p != nil {
			snap = cacheErrorSnapshot()
			source = "cache_error"
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot == nil {
		return UnavailableSnapshot(c.fallbackTrain, c.now()), "error"
	}

	age := 999
	if !c.timestamp.IsZero() {
		age = int(c.now().Sub(c.timestamp).Seconds())
	}
	switch {
	case time.Duration(age)*time.Second < c.duration:
		return c.snapshot, fmt.Sprintf("cached (%ds old)", age)
	case c.updating:
		return c.snapshot, fmt.Sprintf("stale but updating (%ds old)", age)
	default:
		return c.snapshot, fmt.Sprintf("stale fallback (%ds old)", age)
	}
}

// Write atomically replaces the stored snapshot and stamps it with the
// current time.
func (c *Cache) Write(snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snap
	c.timestamp = c.now()
}

// BeginUpdate marks a refresh as in progress. It only influences the
// source label readers observe; it does not block concurrent refreshes.
func (c *Cache) BeginUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updating = true
}

// EndUpdate clears the in-progress flag.
func (c *Cache) EndUpdate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updating = false
}

// Stats reports cache metadata under the same lock as Read.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := CacheStats{
		HasData:    c.snapshot != nil,
		IsUpdating: c.updating,
	}
	if !c.timestamp.IsZero() {
		s.AgeSeconds = int(c.now().Sub(c.timestamp).Seconds())
		s.LastUpdate = iso8601(c.timestamp)
	}
	return s
}
