package internal

import "sync"

// HotPath is the bypass writer for record names matching one of the
// hot-path prefixes (spec §4.7 open question, resolved in favor of a
// true prefix match rather than an `indexOf` substring test — the
// spec itself calls prefix "the safer choice"). A hot-path write skips
// the per-record Transition and Stability Gate entirely: it writes
// cache and durable storage directly and in parallel, then broadcasts
// and acks once both complete. Patches are rejected outright, since a
// hot-path record has no tracked "current" version to patch against.
type HotPath struct {
	prefixes []string
	facade   *Facade
	subs     SubscriptionRegistry
}

func NewHotPath(prefixes []string, facade *Facade, subs SubscriptionRegistry) *HotPath {
	return &HotPath{prefixes: prefixes, facade: facade, subs: subs}
}

// Matches reports whether name falls on the hot path.
func (h *HotPath) Matches(name string) bool {
	for _, prefix := range h.prefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// Write performs a hot-path update. A PATCH or ERASE is refused here
// with INVALID_PATCH_ON_HOTPATH and nothing is written.
func (h *HotPath) Write(sender Sender, msg Message) {
	if msg.Action == ActionPatch || msg.Action == ActionErase {
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionInvalidPatchOnHotpath,
			Name:           msg.Name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	}

	stored := StoredRecord{Version: msg.Version, Data: msg.Data}

	var cacheErr, storageErr error
	var wg sync.WaitGroup
	wg.Add(2)
	h.facade.WriteCache(msg.Name, stored, func(err error) {
		cacheErr = err
		wg.Done()
	})
	h.facade.WriteDurable(msg.Name, stored, func(err error) {
		storageErr = err
		wg.Done()
	})
	wg.Wait()

	if cacheErr != nil {
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionRecordUpdateError,
			Name:           msg.Name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	}

	broadcast := msg
	broadcast.HasVersion = true
	h.subs.SendToSubscribers(msg.Name, broadcast, true, sender)

	if msg.IsWriteAck {
		var errPayload interface{}
		if storageErr != nil {
			errPayload = storageErr.Error()
		}
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionWriteAcknowledgement,
			Name:          msg.Name,
			ParsedData:    []interface{}{msg.Version, errPayload},
			CorrelationID: msg.CorrelationID,
		})
	}
}
