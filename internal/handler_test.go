package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, cfg Config, permissions PermissionEvaluator) (*Handler, SubscriptionRegistry) {
	t.Helper()
	if permissions == nil {
		permissions = NewAllowAllPermissionEvaluator()
	}
	storage := NewMemoryStorage()
	subs := NewMemorySubscriptionRegistry()
	listeners := NewMemoryListenerRegistry()
	return NewHandler(cfg, storage, subs, listeners, permissions), subs
}

func TestScenarioReadNonexistentRecordReturnsEmptyResponse(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig(), nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionRead, Name: "ghost"})

	msg, ok := sender.last()
	require.True(t, ok)
	assert.Equal(t, ActionReadResponse, msg.Action)
	assert.False(t, msg.HasVersion)
}

func TestScenarioCreateThenSubscriberObservesUpdate(t *testing.T) {
	h, subs := newTestHandler(t, DefaultConfig(), nil)
	subscriber := newFakeSender("watcher")
	subs.Subscribe(Message{Name: "doc1"}, subscriber)

	writer := newFakeSender("writer")
	h.Handle(writer, Message{Action: ActionCreateAndUpdate, Name: "doc1", Version: 0, Data: json.RawMessage(`{"n":1}`)})

	require.Eventually(t, func() bool {
		for _, m := range subscriber.messages() {
			if m.Name == "doc1" && m.Version == 0 {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestScenarioBackToBackUpdateThenPatchBothAccepted(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig(), nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionCreateAndUpdate, Name: "doc2", Version: 0, Data: json.RawMessage(`{"count":0}`)})
	h.Handle(sender, Message{
		Action:     ActionUpdateWithWriteAck,
		Name:       "doc2",
		Version:    1,
		Data:       json.RawMessage(`{"count":1}`),
	})
	h.Handle(sender, Message{
		Action:     ActionPatchWithWriteAck,
		Name:       "doc2",
		Version:    2,
		Path:       "count",
		Data:       json.RawMessage(`2`),
	})

	require.Eventually(t, func() bool {
		acks := 0
		for _, m := range sender.messages() {
			if m.Action == ActionWriteAcknowledgement {
				acks++
			}
			if m.Action == ActionInvalidVersion || m.Action == ActionVersionExists {
				t.Fatalf("unexpected rejection for back-to-back writes: %+v", m)
			}
		}
		return acks == 2
	}, time.Second, time.Millisecond)
}

func TestScenarioConcurrentStaleWriteGetsVersionExists(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig(), nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionCreateAndUpdateWithWriteAck, Name: "doc3", Version: 0, Data: json.RawMessage(`{}`)})
	require.Eventually(t, func() bool { return len(sender.messages()) >= 1 }, time.Second, time.Millisecond)

	h.Handle(sender, Message{Action: ActionUpdate, Name: "doc3", Version: 1, Data: json.RawMessage(`{"a":1}`)})
	h.Handle(sender, Message{Action: ActionUpdate, Name: "doc3", Version: 1, Data: json.RawMessage(`{"a":2}`)})

	require.Eventually(t, func() bool {
		for _, m := range sender.messages() {
			if m.Action == ActionVersionExists {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

type denyEvaluator struct{ allow bool }

func (d denyEvaluator) CanPerformAction(user string, msg Message, cb func(err error, allowed bool), authData interface{}, sender Sender) {
	cb(nil, d.allow)
}

func TestScenarioPermissionDenialBlocksWrite(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig(), denyEvaluator{allow: false})
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionCreateAndUpdate, Name: "secret", Version: 0, Data: json.RawMessage(`{}`)})

	msg, ok := sender.last()
	require.True(t, ok)
	assert.Equal(t, ActionMessageDenied, msg.Action)
}

func TestScenarioHotPathBypassesVersionDiscipline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HotPathPrefixes = []string{"live."}
	h, subs := newTestHandler(t, cfg, nil)

	subscriber := newFakeSender("watcher")
	subs.Subscribe(Message{Name: "live.cursor"}, subscriber)

	sender := newFakeSender("u1")
	h.Handle(sender, Message{Action: ActionUpdate, Name: "live.cursor", Version: 100, Data: json.RawMessage(`{"x":1}`)})
	h.Handle(sender, Message{Action: ActionUpdate, Name: "live.cursor", Version: 5, Data: json.RawMessage(`{"x":2}`)})

	require.Eventually(t, func() bool {
		for _, m := range sender.messages() {
			if m.Action == ActionInvalidVersion || m.Action == ActionVersionExists {
				return false
			}
		}
		return len(subscriber.messages()) == 2
	}, time.Second, time.Millisecond)
}

func TestScenarioHotPathRejectsPatchThroughHandler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HotPathPrefixes = []string{"live."}
	h, _ := newTestHandler(t, cfg, nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionPatch, Name: "live.cursor", Version: 1, Path: "x", Data: json.RawMessage(`1`)})

	msg, ok := sender.last()
	require.True(t, ok)
	assert.Equal(t, ActionInvalidPatchOnHotpath, msg.Action)
}

func TestScenarioHotPathRejectsCreateAndPatchThroughHandler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HotPathPrefixes = []string{"live."}
	h, _ := newTestHandler(t, cfg, nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionCreateAndPatch, Name: "live.cursor", Version: 1, Path: "x", Data: json.RawMessage(`1`)})

	msg, ok := sender.last()
	require.True(t, ok)
	assert.Equal(t, ActionInvalidPatchOnHotpath, msg.Action)
}

func TestScenarioCreateAndPatchAppliesPartialUpdateNotWholeValue(t *testing.T) {
	h, _ := newTestHandler(t, DefaultConfig(), nil)
	sender := newFakeSender("u1")

	h.Handle(sender, Message{Action: ActionCreateAndUpdateWithWriteAck, Name: "doc5", Version: 0, Data: json.RawMessage(`{"city":"nyc","keep":true}`)})
	require.Eventually(t, func() bool { return len(sender.messages()) >= 1 }, time.Second, time.Millisecond)

	h.Handle(sender, Message{Action: ActionCreateAndPatch, Name: "doc5", Version: 1, Path: "city", Data: json.RawMessage(`"sf"`)})

	require.Eventually(t, func() bool {
		h.Handle(sender, Message{Action: ActionRead, Name: "doc5"})
		msg, ok := sender.last()
		return ok && msg.Action == ActionReadResponse && msg.Version == 1
	}, time.Second, time.Millisecond)

	done := make(chan *Record, 1)
	h.coalescer.Load("doc5", func(rec *Record, err error) { done <- rec })
	rec := <-done
	require.NotNil(t, rec)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Data, &decoded))
	assert.Equal(t, "sf", decoded["city"])
	assert.Equal(t, true, decoded["keep"])
}

func TestScenarioDeleteTearsDownSubscriptionsAndTransition(t *testing.T) {
	h, subs := newTestHandler(t, DefaultConfig(), nil)
	sender := newFakeSender("owner")
	subs.Subscribe(Message{Name: "doc4"}, sender)

	h.Handle(sender, Message{Action: ActionCreateAndUpdateWithWriteAck, Name: "doc4", Version: 0, Data: json.RawMessage(`{}`)})
	require.Eventually(t, func() bool { return len(sender.messages()) > 0 }, time.Second, time.Millisecond)

	h.Handle(sender, Message{Action: ActionDelete, Name: "doc4"})

	require.Eventually(t, func() bool {
		for _, m := range sender.messages() {
			if m.Action == ActionDeleteSuccess {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)

	assert.Empty(t, subs.GetLocalSubscribers("doc4"))
}
