package internal

import (
	"time"

	"github.com/ReneKroon/ttlcache"
)

// MemoryCache is the default Cache implementation, backed by
// ReneKroon/ttlcache the same way the teacher's default storage used
// it (internal/memo.go), generalized from memoizing message digests to
// memoizing whole records. A record stays resident until ttl elapses
// or it is explicitly evicted by a write or delete.
type MemoryCache struct {
	cache *ttlcache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	return &MemoryCache{cache: c}
}

func (m *MemoryCache) Get(name string, cb func(err error, rec *StoredRecord)) {
	v, exists := m.cache.Get(name)
	if !exists {
		cb(nil, nil)
		return
	}
	rec, ok := v.(StoredRecord)
	if !ok {
		cb(nil, nil)
		return
	}
	cb(nil, &rec)
}

func (m *MemoryCache) Set(name string, rec StoredRecord, cb func(err error)) {
	m.cache.Set(name, rec)
	if cb != nil {
		cb(nil)
	}
}

func (m *MemoryCache) Delete(name string, cb func(err error)) {
	m.cache.Remove(name)
	if cb != nil {
		cb(nil)
	}
}
