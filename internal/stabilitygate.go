package internal

import "sync"

// StabilityGate is the per-record FIFO barrier that defers reads
// issued from within permission evaluation until all preceding writes
// for that record are visible (spec §4.4). An empty queue present in
// the table means "a request is currently in flight"; absence means
// "idle" — callers must not read anything into the map key's presence
// beyond that.
//
// Structurally this is the same map-of-slices-guarded-by-one-mutex
// idiom the teacher used for its PreviousSet (internal/previous_set.go),
// adapted from a per-message conflict set to a per-record callback
// queue.
type StabilityGate struct {
	mutex  sync.Mutex
	queues map[string][]func()
}

func NewStabilityGate() *StabilityGate {
	return &StabilityGate{queues: make(map[string][]func())}
}

// RunWhenRecordStable installs cb to run once the named record has no
// in-flight request ahead of it. If the queue is absent or empty cb
// runs synchronously and the queue is installed (possibly empty) so
// any racing write knows a request is now in flight.
func (g *StabilityGate) RunWhenRecordStable(name string, cb func()) {
	g.mutex.Lock()
	q, exists := g.queues[name]
	if !exists || len(q) == 0 {
		g.queues[name] = []func(){}
		g.mutex.Unlock()
		cb()
		return
	}
	g.queues[name] = append(q, cb)
	g.mutex.Unlock()
}

// RemoveRecordRequest releases one queued waiter for name, called by
// writers once their cache write acknowledges. If the queue is absent
// this is a no-op; if empty the entry is dropped (request no longer in
// flight); otherwise the head callback is popped and invoked, strictly
// in enqueue order.
func (g *StabilityGate) RemoveRecordRequest(name string) {
	g.mutex.Lock()
	q, exists := g.queues[name]
	if !exists {
		g.mutex.Unlock()
		return
	}
	if len(q) == 0 {
		delete(g.queues, name)
		g.mutex.Unlock()
		return
	}
	next := q[0]
	g.queues[name] = q[1:]
	g.mutex.Unlock()
	next()
}
