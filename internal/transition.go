package internal

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/wangjia184/sortedset"
)

// pendingStep is one queued write against a record: a full update or a
// partial patch/erase at an explicit expected version (spec §3
// "Transition state").
type pendingStep struct {
	sender     Sender
	message    Message
	parsed     interface{}
	parsedOnce bool
}

// Transition is the per-record serializer (spec §4.5, §2 component 4).
// At most one Transition exists for a given record name at any
// instant; it accepts full updates and partial patches at strictly
// increasing versions, applies them in order, persists each step, and
// broadcasts it.
//
// The pending-step queue is backed by a sortedset the same way the
// teacher's RQueue (internal/queue.go) always pops the lowest-scored
// element; there the score was a message timestamp, here it is a
// monotonic acceptance sequence number, which gives plain FIFO
// ordering while reusing the same "peek-the-minimum" shape.
type Transition struct {
	mutex sync.Mutex
	name  string

	facade *Facade
	gate   *StabilityGate
	subs   SubscriptionRegistry
	logger Logger

	pending    *sortedset.SortedSet
	stepsByKey map[string]*pendingStep
	nextSeq    uint64
	activeKey  string

	// baseline is the highest version accepted into the queue so far
	// (processed or not); baselineHas is false only before the first
	// step of a brand-new record's transition is accepted.
	baseline    int64
	baselineHas bool

	// currentVersion/currentRaw is the last value actually committed to
	// cache, used as the patch base and as the VERSION_EXISTS payload.
	currentVersion int64
	currentRaw     json.RawMessage
	currentHas     bool

	processing bool
	destroyed  bool

	// onComplete is called once the pending queue drains to empty,
	// letting the Handler drop this Transition from its table (spec
	// §4.5 step 8: "signal the Handler via transitionComplete(name)").
	onComplete func(name string)
}

// NewTransition creates a Transition for name. base describes the
// record's value at the moment the Transition was born: for an
// existing record this is its current {version, data}; for a
// brand-new record reached only through the upsert path, base is nil
// and the first accepted step may carry any version.
func NewTransition(name string, base *Record, facade *Facade, gate *StabilityGate, subs SubscriptionRegistry, logger Logger, onComplete func(name string)) *Transition {
	t := &Transition{
		name:       name,
		facade:     facade,
		gate:       gate,
		subs:       subs,
		logger:     logger,
		pending:    sortedset.New(),
		stepsByKey: make(map[string]*pendingStep),
		onComplete: onComplete,
	}
	if base != nil {
		t.baseline = base.Version
		t.baselineHas = true
		t.currentVersion = base.Version
		t.currentRaw = base.Data
		t.currentHas = true
	}
	return t
}

// HasVersion reports whether v is less than or equal to the highest
// version already accepted into the queue (spec §4.5).
func (t *Transition) HasVersion(v int64) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.baselineHas && v <= t.baseline
}

// SendVersionExists emits VERSION_EXISTS to sender, carrying the
// Transition's last committed version and data (spec §4.5).
func (t *Transition) SendVersionExists(sender Sender, correlationID string) {
	t.mutex.Lock()
	version, data := t.currentVersion, t.currentRaw
	t.mutex.Unlock()
	sender.Send(Message{
		Topic:         TopicRecord,
		Action:        ActionVersionExists,
		Name:          t.name,
		Version:       version,
		HasVersion:    true,
		Data:          data,
		CorrelationID: correlationID,
	})
}

// Add enqueues a step. upsert relaxes the version-discipline's first
// check only when the record has no baseline yet (a brand-new record);
// once a baseline exists every step, upsert or not, must be exactly
// baseline+1.
func (t *Transition) Add(sender Sender, msg Message, upsert bool) {
	t.mutex.Lock()
	if t.destroyed {
		t.mutex.Unlock()
		return
	}

	v := msg.Version
	switch {
	case t.baselineHas && v <= t.baseline:
		version, data := t.currentVersion, t.currentRaw
		t.mutex.Unlock()
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionVersionExists,
			Name:          t.name,
			Version:       version,
			HasVersion:    true,
			Data:          data,
			CorrelationID: msg.CorrelationID,
		})
		return
	case t.baselineHas && v != t.baseline+1:
		current := t.baseline
		t.mutex.Unlock()
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionInvalidVersion,
			Name:           t.name,
			Version:        current,
			HasVersion:     true,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	case !t.baselineHas && !upsert:
		t.mutex.Unlock()
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionInvalidVersion,
			Name:           t.name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	}

	t.baseline = v
	t.baselineHas = true

	seq := t.nextSeq
	t.nextSeq++
	key := strconv.FormatUint(seq, 10)
	step := &pendingStep{sender: sender, message: msg}
	t.stepsByKey[key] = step
	t.pending.AddOrUpdate(key, sortedset.SCORE(seq), step)

	shouldStart := !t.processing
	if shouldStart {
		t.processing = true
	}
	t.mutex.Unlock()

	if shouldStart {
		t.processNext()
	}
}

// Destroy aborts all pending steps without persisting or broadcasting
// further, draining write-ack waiters with ErrTransitionAborted (spec
// §4.5, §4.8, §7). A step already mid-flight is left to notice
// destroyed on its own next checkpoint rather than being ripped out
// from under its goroutine.
func (t *Transition) Destroy() {
	t.mutex.Lock()
	if t.destroyed {
		t.mutex.Unlock()
		return
	}
	t.destroyed = true
	active := t.activeKey

	var aborted []*pendingStep
	if min := t.pending.PeekMin(); min != nil {
		max := t.pending.PeekMax()
		for _, node := range t.pending.GetByScoreRange(min.Score(), max.Score(), nil) {
			key := node.Key()
			if key == active {
				continue
			}
			aborted = append(aborted, node.Value.(*pendingStep))
			t.pending.Remove(key)
			delete(t.stepsByKey, key)
		}
	}
	t.mutex.Unlock()

	for _, step := range aborted {
		t.replyAborted(step)
	}
}

func (t *Transition) replyAborted(step *pendingStep) {
	if !step.message.IsWriteAck {
		return
	}
	step.sender.Send(Message{
		Topic:         TopicRecord,
		Action:        ActionWriteAcknowledgement,
		Name:          t.name,
		ParsedData:    []interface{}{step.message.Version, ErrTransitionAborted.Error()},
		CorrelationID: step.message.CorrelationID,
	})
}

// processNext picks the lowest-sequence pending step, if any, and
// drives it through the pipeline. It recurses (via finishStep) until
// the queue is empty, at which point it signals completion.
func (t *Transition) processNext() {
	t.mutex.Lock()
	node := t.pending.PeekMin()
	if node == nil {
		t.processing = false
		t.activeKey = ""
		destroyed := t.destroyed
		onComplete := t.onComplete
		name := t.name
		t.mutex.Unlock()
		if !destroyed && onComplete != nil {
			onComplete(name)
		}
		return
	}
	key := node.Key()
	step := node.Value.(*pendingStep)
	t.activeKey = key
	t.mutex.Unlock()

	t.processStep(key, step)
}

// processStep runs the per-accepted-step pipeline from spec §4.5:
// parse once, apply patch/erase, bump version, write cache, broadcast
// on cache success, write durable storage in parallel, ack if
// requested, release one Stability Gate waiter, then move on.
func (t *Transition) processStep(key string, step *pendingStep) {
	t.mutex.Lock()
	if t.destroyed {
		t.mutex.Unlock()
		t.dropStep(key, step)
		return
	}
	baseRaw := t.currentRaw
	t.mutex.Unlock()

	msg := step.message
	if !step.parsedOnce {
		if len(msg.Data) > 0 {
			_ = json.Unmarshal(msg.Data, &step.parsed)
		}
		step.parsedOnce = true
	}

	var newRaw json.RawMessage
	var err error
	switch msg.Action {
	case ActionPatch:
		newRaw, err = applyPatch(baseRaw, msg.Path, step.parsed)
	case ActionErase:
		newRaw, err = applyErase(baseRaw, msg.Path)
	default: // ActionUpdate, or an upsert CREATE_AND_UPDATE routed here
		if len(msg.Data) > 0 {
			newRaw = append(json.RawMessage(nil), msg.Data...)
		} else {
			newRaw = json.RawMessage(`{}`)
		}
	}

	if err != nil {
		step.sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionRecordUpdateError,
			Name:           t.name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		t.finishStep(key)
		return
	}

	newVersion := msg.Version
	stored := StoredRecord{Version: newVersion, Data: newRaw}

	cacheDone := make(chan error, 1)
	t.facade.WriteCache(t.name, stored, func(cacheErr error) { cacheDone <- cacheErr })
	cacheErr := <-cacheDone

	if cacheErr != nil {
		step.sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionRecordUpdateError,
			Name:           t.name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		t.finishStep(key)
		return
	}

	t.mutex.Lock()
	if t.destroyed {
		t.mutex.Unlock()
		t.dropStep(key, step)
		return
	}
	t.currentRaw = newRaw
	t.currentVersion = newVersion
	t.currentHas = true
	t.mutex.Unlock()

	broadcast := msg
	broadcast.Version = newVersion
	broadcast.HasVersion = true
	broadcast.Data = newRaw
	t.subs.SendToSubscribers(t.name, broadcast, false, step.sender)

	var storageErr error
	var wg sync.WaitGroup
	if msg.IsWriteAck {
		wg.Add(1)
	}
	t.facade.WriteDurable(t.name, stored, func(durableErr error) {
		storageErr = durableErr
		if msg.IsWriteAck {
			wg.Done()
		}
	})

	if msg.IsWriteAck {
		wg.Wait()
		var errPayload interface{}
		if storageErr != nil {
			errPayload = storageErr.Error()
		}
		step.sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionWriteAcknowledgement,
			Name:          t.name,
			ParsedData:    []interface{}{newVersion, errPayload},
			CorrelationID: msg.CorrelationID,
		})
	}

	t.finishStep(key)
}

// dropStep removes an in-flight step that discovered mid-pipeline that
// its Transition was destroyed, replying with an aborted ack instead
// of a normal one.
func (t *Transition) dropStep(key string, step *pendingStep) {
	t.mutex.Lock()
	t.pending.Remove(key)
	delete(t.stepsByKey, key)
	t.mutex.Unlock()
	t.replyAborted(step)
}

func (t *Transition) finishStep(key string) {
	t.gate.RemoveRecordRequest(t.name)
	t.mutex.Lock()
	t.pending.Remove(key)
	delete(t.stepsByKey, key)
	t.mutex.Unlock()
	t.processNext()
}
