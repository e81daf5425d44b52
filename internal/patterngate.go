package internal

import (
	"strconv"
	"sync"
)

// PatternGate mediates record creation against registered pattern
// listeners (spec §4.6, pattern-listener support): before a brand-new
// record is created, every listener whose pattern covers the name is
// asked in parallel to accept or reject the creation via
// LISTEN_ACCEPT/LISTEN_REJECT; the record is created only once every
// matched listener has accepted, and rejected outright the moment any
// one of them rejects. A name with no matching listener is approved
// immediately.
//
// Pending decisions are tracked by an opaque token carried as the
// outbound message's CorrelationID, the same request/response
// correlation idiom the teacher's Peer uses for its observers
// (internal/peer.go), so a listener's reply routes back to the right
// waiter regardless of how many concurrent creations are in flight for
// other names.
type PatternGate struct {
	mutex   sync.Mutex
	pending map[string]*creationWait
	nextID  uint64

	listeners ListenerRegistry
}

type creationWait struct {
	remaining int
	onDecision func(allowed bool)
}

func NewPatternGate(listeners ListenerRegistry) *PatternGate {
	return &PatternGate{pending: make(map[string]*creationWait), listeners: listeners}
}

func (g *PatternGate) RequestCreate(name string, onDecision func(allowed bool)) {
	matched := g.listeners.MatchName(name)
	if len(matched) == 0 {
		onDecision(true)
		return
	}

	g.mutex.Lock()
	token := strconv.FormatUint(g.nextID, 10)
	g.nextID++
	g.pending[token] = &creationWait{remaining: len(matched), onDecision: onDecision}
	g.mutex.Unlock()

	for _, listener := range matched {
		listener.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionCreateAndUpdate,
			Name:          name,
			CorrelationID: token,
		})
	}
}

// Resolve is called for every inbound LISTEN_ACCEPT/LISTEN_REJECT,
// keyed by the token the gate attached as CorrelationID.
func (g *PatternGate) Resolve(token string, accepted bool) {
	g.mutex.Lock()
	wait, ok := g.pending[token]
	if !ok {
		g.mutex.Unlock()
		return
	}
	if !accepted {
		delete(g.pending, token)
		g.mutex.Unlock()
		wait.onDecision(false)
		return
	}

	wait.remaining--
	done := wait.remaining <= 0
	if done {
		delete(g.pending, token)
	}
	g.mutex.Unlock()

	if done {
		wait.onDecision(true)
	}
}
