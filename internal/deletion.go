package internal

// Deletion is the coordinator for DELETE/DELETE_SUCCESS handling (spec
// §4 deletion flow, §2 component 5). A local DELETE tears down any
// in-flight Transition, removes the record from both storage tiers
// unless excluded, then broadcasts and unsubscribes every local
// subscriber. A remote DELETE_SUCCESS (this record was deleted on a
// peer) skips the storage teardown — the peer already owns that — but
// still tears down the local Transition and notifies local
// subscribers, so a client attached to either node observes the same
// outcome.
type Deletion struct {
	facade *Facade
	fanOut *FanOut
}

func NewDeletion(facade *Facade, fanOut *FanOut) *Deletion {
	return &Deletion{facade: facade, fanOut: fanOut}
}

// transitionDestroyer is the minimal surface Deletion needs from the
// Handler's transition table: find and tear down a record's
// Transition, if one exists.
type transitionDestroyer interface {
	DestroyTransition(name string)
}

// Local handles a DELETE originating from a directly-connected sender.
// A cache or durable-storage delete failure is reported to the
// requester as RECORD_DELETE_ERROR instead of finishing as if the
// deletion had succeeded (spec §4.8, §7).
func (d *Deletion) Local(sender Sender, msg Message, transitions transitionDestroyer) {
	transitions.DestroyTransition(msg.Name)

	d.facade.DeleteCache(msg.Name, func(err error) {
		if err != nil {
			d.fail(sender, msg)
			return
		}
		d.facade.DeleteDurable(msg.Name, func(err error) {
			if err != nil {
				d.fail(sender, msg)
				return
			}
			d.finish(sender, msg)
		})
	})
}

func (d *Deletion) fail(sender Sender, msg Message) {
	sender.Send(Message{
		Topic:          TopicRecord,
		Action:         ActionRecordDeleteError,
		Name:           msg.Name,
		OriginalAction: msg.Action,
		CorrelationID:  msg.CorrelationID,
	})
}

// Remote handles a DELETE_SUCCESS notification: the deletion already
// happened on the peer that owns it, so only local bookkeeping and
// notification are needed.
func (d *Deletion) Remote(sender Sender, msg Message, transitions transitionDestroyer) {
	transitions.DestroyTransition(msg.Name)
	d.finish(sender, msg)
}

func (d *Deletion) finish(sender Sender, msg Message) {
	broadcast := msg
	broadcast.Action = ActionDeleteSuccess
	d.fanOut.Broadcast(msg.Name, broadcast, true, sender)

	for _, subscriber := range d.fanOut.subs.GetLocalSubscribers(msg.Name) {
		d.fanOut.Unsubscribe(Message{Topic: TopicRecord, Action: ActionUnsubscribe, Name: msg.Name}, subscriber, true)
	}

	if !msg.IsRemote {
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionDeleteSuccess,
			Name:          msg.Name,
			CorrelationID: msg.CorrelationID,
		})
	}
}
