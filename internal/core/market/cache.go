// package market/cache.go
package market

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache keys, one per indicator.
const (
	KeySelic  = "selic"
	KeyCDI    = "cdi"
	KeyIPCA   = "ipca"
	KeyUSDBRL = "usd_brl"
	KeyIbov   = "ibov"
	KeyAnbima = "anbima"
)

// Entry is a cached upstream value and the moment it was fetched.
type Entry struct {
	Value     any
	FetchedAt time.Time
}

// Cache stores market entries for the lifetime of the process. Freshness is
// decided by the caller from Entry.FetchedAt, so implementations never expire
// entries on their own.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
}

type memoryCache struct {
	store *cache.Cache
}

// NewMemoryCache returns a Cache backed by go-cache. It is safe for concurrent use.
func NewMemoryCache() Cache {
	return &memoryCache{store: cache.New(cache.NoExpiration, 0)}
}

func (c *memoryCache) Get(key string) (Entry, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return Entry{}, false
	}
	entry, ok := v.(Entry)
	return entry, ok
}

func (c *memoryCache) Set(key string, entry Entry) {
	c.store.Set(key, entry, cache.NoExpiration)
}
