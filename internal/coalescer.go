package internal

import "sync"

// Coalescer implements the Record Request Coalescer (spec §4.3): it
// loads a record's current value through the Facade, keeping at most
// one outstanding backend fetch per name in flight at a time.
// Concurrent callers for the same name attach to the same in-flight
// fetch and all receive the same outcome, in registration order.
//
// The map-of-waiters-guarded-by-one-mutex shape follows the same
// pattern as the teacher's Peer.observers map (internal/peer.go),
// adapted from "one observer per request UID" to "N waiters per
// in-flight name".
type Coalescer struct {
	mutex    sync.Mutex
	inflight map[string][]func(rec *Record, err error)
	facade   *Facade
	gate     *StabilityGate
}

func NewCoalescer(facade *Facade, gate *StabilityGate) *Coalescer {
	return &Coalescer{
		inflight: make(map[string][]func(rec *Record, err error)),
		facade:   facade,
		gate:     gate,
	}
}

// Load resolves name's current record directly. Used by every caller
// except the permission evaluator.
func (c *Coalescer) Load(name string, cb func(rec *Record, err error)) {
	c.load(name, cb)
}

// LoadStable routes the load through the Stability Gate first, so a
// permission rule reading this record never observes a value older
// than the write it is meant to gate (spec §4.3, §4.4).
func (c *Coalescer) LoadStable(name string, cb func(rec *Record, err error)) {
	c.gate.RunWhenRecordStable(name, func() {
		c.load(name, cb)
	})
}

func (c *Coalescer) load(name string, cb func(rec *Record, err error)) {
	c.mutex.Lock()
	if waiters, ok := c.inflight[name]; ok {
		c.inflight[name] = append(waiters, cb)
		c.mutex.Unlock()
		return
	}
	c.inflight[name] = []func(rec *Record, err error){cb}
	c.mutex.Unlock()

	c.facade.Load(name, func(err error, stored *StoredRecord) {
		var rec *Record
		if err == nil && stored != nil {
			rec = &Record{Name: name, Version: stored.Version, Data: stored.Data}
		}

		c.mutex.Lock()
		waiters := c.inflight[name]
		delete(c.inflight, name)
		c.mutex.Unlock()

		for _, waiter := range waiters {
			waiter(rec, err)
		}
	})
}
