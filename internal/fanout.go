package internal

// FanOut is a thin adapter over a SubscriptionRegistry for broadcast,
// subscribe and unsubscribe (spec §2 component 6). The Deletion
// coordinator goes through it; the Handler, Transition and HotPath call
// the SubscriptionRegistry directly.
type FanOut struct {
	subs SubscriptionRegistry
}

func NewFanOut(subs SubscriptionRegistry) *FanOut {
	return &FanOut{subs: subs}
}

func (f *FanOut) Broadcast(name string, msg Message, noDelay bool, originalSender Sender) {
	f.subs.SendToSubscribers(name, msg, noDelay, originalSender)
}

func (f *FanOut) Subscribe(msg Message, sender Sender) {
	f.subs.Subscribe(msg, sender)
}

func (f *FanOut) Unsubscribe(msg Message, sender Sender, silent bool) {
	f.subs.Unsubscribe(msg, sender, silent)
}
