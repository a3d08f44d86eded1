package client

import (
	"sync"

	"github.com/jobportal/profile-sync/internal/domain"
)

// CachedProfile is the last profile body the server returned, with the server's own
// Last-Modified value.
type CachedProfile struct {
	Profile      *domain.ProfileRecord
	LastModified string
}

// ReadCache keeps the last confirmed copy of each resource keyed by id.
type ReadCache struct {
	mu      sync.RWMutex
	entries map[string]CachedProfile
}

// NewReadCache returns an empty cache.
func NewReadCache() *ReadCache {
	return &ReadCache{entries: make(map[string]CachedProfile)}
}

// ProfileKey is the cache key of an owner's profile.
func ProfileKey(ownerID string) string {
	return "profile:" + ownerID
}

// Get returns a copy of the cached entry.
func (c *ReadCache) Get(key string) (CachedProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return CachedProfile{}, false
	}
	return CachedProfile{Profile: entry.Profile.Clone(), LastModified: entry.LastModified}, true
}

// Put stores a copy of profile under key.
func (c *ReadCache) Put(key string, profile *domain.ProfileRecord, lastModified string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CachedProfile{Profile: profile.Clone(), LastModified: lastModified}
}

// Invalidate drops key.
func (c *ReadCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *ReadCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]CachedProfile)
}
