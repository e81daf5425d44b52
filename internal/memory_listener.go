package internal

import (
	"strings"
	"sync"
)

// MemoryListenerRegistry is the default ListenerRegistry: pattern
// listeners register a plain name prefix (matched the same way as the
// hot-path prefixes). Through the Pattern Gate they are asked, in
// registration order, to accept or reject a record that
// SUBSCRIBE_CREATE_AND_READ is about to create under that prefix,
// before it is written. A record first written through
// CREATE_AND_UPDATE or CREATE_AND_PATCH is not put to the listeners.
type MemoryListenerRegistry struct {
	mutex     sync.Mutex
	listeners []*registeredListener
}

type registeredListener struct {
	pattern string
	sender  Sender
}

func NewMemoryListenerRegistry() *MemoryListenerRegistry {
	return &MemoryListenerRegistry{}
}

// Handle processes a LISTEN/UNLISTEN request from sender.
func (r *MemoryListenerRegistry) Handle(sender Sender, msg Message) {
	switch msg.Action {
	case ActionListen:
		r.mutex.Lock()
		r.listeners = append(r.listeners, &registeredListener{pattern: msg.Name, sender: sender})
		r.mutex.Unlock()
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionSubscribeAck,
			Name:          msg.Name,
			CorrelationID: msg.CorrelationID,
		})
	case ActionUnlisten:
		r.mutex.Lock()
		filtered := r.listeners[:0]
		for _, l := range r.listeners {
			if l.pattern == msg.Name && l.sender == sender {
				continue
			}
			filtered = append(filtered, l)
		}
		r.listeners = filtered
		r.mutex.Unlock()
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionUnsubscribeAck,
			Name:          msg.Name,
			CorrelationID: msg.CorrelationID,
		})
	}
}

// MatchName returns every listener whose pattern prefixes name, in
// registration order, so the Handler can ask each in turn whether the
// newly-created record may proceed.
func (r *MemoryListenerRegistry) MatchName(name string) []Sender {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var matched []Sender
	for _, l := range r.listeners {
		if strings.HasPrefix(name, l.pattern) {
			matched = append(matched, l.sender)
		}
	}
	return matched
}
