// Package cache provides the query cache the playback coordinator mutates
// optimistically. The coordinator depends only on the Cache interface, which
// can be backed by any implementation.
package cache

import "sync"

// Cache is a keyed value store with group invalidation
type Cache interface {
	// Read returns the cached value for key, if present
	Read(key string) (any, bool)

	// Write stores a value under key
	Write(key string, value any)

	// Invalidate drops the given keys and every key filed under them as a
	// group prefix, forcing dependents to refetch
	Invalidate(keys ...string)
}

// Query group keys invalidated when an item's watch state changes. Every view
// reflecting watch state hangs off one of these groups.
const (
	GroupItem             = "item"
	GroupResume           = "resume"
	GroupContinueWatching = "continue-watching"
	GroupNextUp           = "next-up"
	GroupEpisodes         = "episodes"
	GroupSeasons          = "seasons"
	GroupHome             = "home"
)

// WatchStateGroups is the fixed set of query groups refreshed after a
// successful played-state change
var WatchStateGroups = []string{
	GroupItem,
	GroupResume,
	GroupContinueWatching,
	GroupNextUp,
	GroupEpisodes,
	GroupSeasons,
	GroupHome,
}

// ItemKey returns the cache key for a single item's detail entry
func ItemKey(itemID string) string {
	return GroupItem + ":" + itemID
}

// Memory is an in-memory Cache implementation
type Memory struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{values: make(map[string]any)}
}

// Read returns the cached value for key, if present
func (m *Memory) Read(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Write stores a value under key
func (m *Memory) Write(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Invalidate drops the given keys and any entries filed under them as groups
func (m *Memory) Invalidate(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
		prefix := key + ":"
		for k := range m.values {
			if len(k) > len(prefix) && k[:len(prefix)] == prefix {
				delete(m.values, k)
			}
		}
	}
}

// Len returns the number of cached entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
