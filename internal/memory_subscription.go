package internal

import "sync"

// MemorySubscriptionRegistry is the default, single-process
// SubscriptionRegistry: a map of record name to the set of senders
// currently subscribed, guarded by one mutex. Grounded on the same
// map-of-sets-behind-a-mutex shape the teacher uses for its own
// membership bookkeeping, generalized from "nodes in a group" to
// "senders subscribed to a record".
type MemorySubscriptionRegistry struct {
	mutex       sync.RWMutex
	subscribers map[string]map[Sender]struct{}
	listener    SubscriptionListener
}

func NewMemorySubscriptionRegistry() *MemorySubscriptionRegistry {
	return &MemorySubscriptionRegistry{subscribers: make(map[string]map[Sender]struct{})}
}

func (r *MemorySubscriptionRegistry) SetSubscriptionListener(listener SubscriptionListener) {
	r.mutex.Lock()
	r.listener = listener
	r.mutex.Unlock()
}

func (r *MemorySubscriptionRegistry) Subscribe(msg Message, sender Sender) {
	r.mutex.Lock()
	set, ok := r.subscribers[msg.Name]
	if !ok {
		set = make(map[Sender]struct{})
		r.subscribers[msg.Name] = set
	}
	set[sender] = struct{}{}
	listener := r.listener
	r.mutex.Unlock()

	if listener != nil {
		listener.OnSubscribe(msg.Name, sender)
	}
}

func (r *MemorySubscriptionRegistry) Unsubscribe(msg Message, sender Sender, silent bool) {
	r.mutex.Lock()
	if set, ok := r.subscribers[msg.Name]; ok {
		delete(set, sender)
		if len(set) == 0 {
			delete(r.subscribers, msg.Name)
		}
	}
	listener := r.listener
	r.mutex.Unlock()

	if listener != nil {
		listener.OnUnsubscribe(msg.Name, sender)
	}
	if !silent {
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionUnsubscribeAck,
			Name:          msg.Name,
			CorrelationID: msg.CorrelationID,
		})
	}
}

// SendToSubscribers delivers msg to every sender subscribed to name.
// originalSender is skipped unless noDelay is set, mirroring the
// "don't echo a write back to its own author unless it asked to see
// its own acknowledgement immediately" rule from spec §4.2/§4.7.
func (r *MemorySubscriptionRegistry) SendToSubscribers(name string, msg Message, noDelay bool, originalSender Sender) {
	r.mutex.RLock()
	set := r.subscribers[name]
	recipients := make([]Sender, 0, len(set))
	for s := range set {
		if s == originalSender && !noDelay {
			continue
		}
		recipients = append(recipients, s)
	}
	r.mutex.RUnlock()

	for _, s := range recipients {
		s.Send(msg)
	}
}

func (r *MemorySubscriptionRegistry) GetLocalSubscribers(name string) []Sender {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	set := r.subscribers[name]
	out := make([]Sender, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}
