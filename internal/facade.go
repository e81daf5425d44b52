package internal

import "strings"

// Facade gives the rest of the core a uniform async get/set/delete
// surface over the cache and durable-storage tiers, honoring the
// exclusion-prefix list that suppresses durable writes for ephemeral
// records (spec §2.1, component 1: Storage Facade).
type Facade struct {
	cache             Cache
	storage           Storage
	exclusionPrefixes []string
	logger            Logger
}

func NewFacade(cache Cache, storage Storage, exclusionPrefixes []string, logger Logger) *Facade {
	return &Facade{
		cache:             cache,
		storage:           storage,
		exclusionPrefixes: exclusionPrefixes,
		logger:            logger,
	}
}

// Excluded reports whether name is covered by a storage-exclusion
// prefix, meaning durable-storage writes for it must be suppressed.
func (f *Facade) Excluded(name string) bool {
	for _, prefix := range f.exclusionPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Load consults the cache first and falls back to durable storage on a
// miss, per the Record Request Coalescer's algorithm (spec §4.3).
func (f *Facade) Load(name string, cb func(err error, rec *StoredRecord)) {
	f.cache.Get(name, func(err error, rec *StoredRecord) {
		if err != nil {
			cb(err, nil)
			return
		}
		if rec != nil {
			cb(nil, rec)
			return
		}
		f.storage.Get(name, cb)
	})
}

// WriteCache writes rec to the cache tier only. Broadcasts and
// write-acks are gated on this call's success, never on WriteDurable.
func (f *Facade) WriteCache(name string, rec StoredRecord, cb func(err error)) {
	f.cache.Set(name, rec, cb)
}

// WriteDurable writes rec to the durable tier, unless name matches a
// storage-exclusion prefix, in which case it completes immediately
// with a nil error without touching storage. Failures are logged and
// handed to cb; the Transition and Hot-Path Writer pass them on only
// inside a write-ack payload, never as a separate error reply.
func (f *Facade) WriteDurable(name string, rec StoredRecord, cb func(err error)) {
	if f.Excluded(name) {
		if cb != nil {
			cb(nil)
		}
		return
	}
	f.storage.Set(name, rec, func(err error) {
		if err != nil {
			f.logger.Errorf("durable write failed for %q: %v", name, err)
		}
		if cb != nil {
			cb(err)
		}
	})
}

// DeleteCache removes name from the cache tier.
func (f *Facade) DeleteCache(name string, cb func(err error)) {
	f.cache.Delete(name, cb)
}

// DeleteDurable removes name from the durable tier, unless excluded.
func (f *Facade) DeleteDurable(name string, cb func(err error)) {
	if f.Excluded(name) {
		if cb != nil {
			cb(nil)
		}
		return
	}
	f.storage.Delete(name, func(err error) {
		if err != nil {
			f.logger.Errorf("durable delete failed for %q: %v", name, err)
		}
		if cb != nil {
			cb(err)
		}
	})
}
