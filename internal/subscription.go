package internal

// SubscriptionListener is notified of subscribe/unsubscribe activity;
// owned and consumed entirely by whatever registry implementation is
// plugged in.
type SubscriptionListener interface {
	OnSubscribe(name string, sender Sender)
	OnUnsubscribe(name string, sender Sender)
}

// SubscriptionRegistry is the external capability surface for record
// subscriptions (spec §6). The core never inspects subscriber
// bookkeeping directly; it only calls through this interface.
type SubscriptionRegistry interface {
	Subscribe(msg Message, sender Sender)
	Unsubscribe(msg Message, sender Sender, silent bool)
	SendToSubscribers(name string, msg Message, noDelay bool, originalSender Sender)
	GetLocalSubscribers(name string) []Sender
	SetSubscriptionListener(listener SubscriptionListener)
}

// ListenerRegistry is the external capability surface for pattern
// listeners (spec §6). MatchName returns, in registration order, the
// senders whose registered pattern covers name, so the Pattern Gate can
// ask each whether a brand-new record under that pattern may be
// created.
type ListenerRegistry interface {
	Handle(sender Sender, listenMsg Message)
	MatchName(name string) []Sender
}
