package gateway

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const registryCacheKey = "registry"

// Cache holds the last known gateway registry between background
// refreshes, so introspection surfaces don't hit the network
type Cache struct {
	cache *gocache.Cache
}

// NewCache creates a registry cache whose entries expire after ttl
func NewCache(ttl time.Duration) *Cache {
	return &Cache{cache: gocache.New(ttl, 2*ttl)}
}

// Store replaces the cached registry contents
func (c *Cache) Store(candidates []Candidate) {
	c.cache.Set(registryCacheKey, candidates, gocache.DefaultExpiration)
}

// Load returns the cached registry, or false when empty or expired
func (c *Cache) Load() ([]Candidate, bool) {
	value, ok := c.cache.Get(registryCacheKey)
	if !ok {
		return nil, false
	}
	return value.([]Candidate), true
}
