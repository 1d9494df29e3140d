package drafts

import (
	"context"
	"sort"
	"sync"
)

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[Key]Entry{}}
}

func (c *MemoryCache) Save(_ context.Context, entry Entry) error {
	entry.Payload = append([]byte(nil), entry.Payload...)
	c.mu.Lock()
	c.entries[entry.Key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Load(_ context.Context, key Key) (Entry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, nil
}

func (c *MemoryCache) Clear(_ context.Context, key Key) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Keys(_ context.Context) ([]Key, error) {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}
