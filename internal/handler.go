package internal

import "sync"

// Handler is the Record Handler (spec §2 component 7): it owns the
// transition table and in-flight bookkeeping, dispatches each inbound
// Message by action, decomposes compound actions into independent
// permission checks, and wires together every other component.
//
// The dispatch-table-over-a-switch shape and the map-of-per-key-state
// pattern both follow the teacher's Peer (internal/peer.go), adapted
// from "per-message observer" to "per-record Transition".
type Handler struct {
	mutex       sync.Mutex
	transitions map[string]*Transition

	facade      *Facade
	gate        *StabilityGate
	coalescer   *Coalescer
	subs        SubscriptionRegistry
	listeners   ListenerRegistry
	hotpath     *HotPath
	deletion    *Deletion
	fanOut      *FanOut
	patternGate *PatternGate
	permissions PermissionEvaluator
	invoker     *Invoker
	logger      Logger

	dispatch map[Action]func(sender Sender, msg Message)
}

func NewHandler(cfg Config, storage Storage, subs SubscriptionRegistry, listeners ListenerRegistry, permissions PermissionEvaluator) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}

	cache := NewMemoryCache(cfg.CacheTTL)
	facade := NewFacade(cache, storage, cfg.StorageExclusionPrefixes, logger)
	fanOut := NewFanOut(subs)

	h := &Handler{
		transitions: make(map[string]*Transition),
		facade:      facade,
		gate:        NewStabilityGate(),
		subs:        subs,
		listeners:   listeners,
		fanOut:      fanOut,
		permissions: permissions,
		invoker:     NewInvoker(),
		logger:      logger,
	}
	h.coalescer = NewCoalescer(facade, h.gate)
	h.hotpath = NewHotPath(cfg.HotPathPrefixes, facade, subs)
	h.deletion = NewDeletion(facade, fanOut)
	h.patternGate = NewPatternGate(listeners)

	h.dispatch = map[Action]func(Sender, Message){
		ActionSubscribeCreateAndRead: h.handleSubscribeCreateAndRead,
		ActionSubscribeAndHead:       h.handleSubscribeAndHead,
		ActionRead:                   h.handleRead,
		ActionHead:                   h.handleHead,
		ActionCreateAndUpdate:        h.handleCreateAndUpdate,
		ActionCreateAndPatch:         h.handleCreateAndPatch,
		ActionUpdate:                 h.handleUpdate,
		ActionPatch:                  h.handlePatch,
		ActionErase:                  h.handleErase,
		ActionDelete:                 h.handleDelete,
		ActionDeleteSuccess:          h.handleDeleteSuccess,
		ActionUnsubscribe:            h.handleUnsubscribe,
		ActionListen:                 h.handleListen,
		ActionUnlisten:               h.handleListen,
		ActionListenAccept:           h.handleListenDecision,
		ActionListenReject:           h.handleListenDecision,
	}
	return h
}

// Handle is the single entry point: it normalizes write-ack action
// variants and dispatches on the resulting base action.
func (h *Handler) Handle(sender Sender, msg Message) {
	if base, isWriteAck := baseAction(msg.Action); isWriteAck {
		msg.Action = base
		msg.IsWriteAck = true
	}

	fn, ok := h.dispatch[msg.Action]
	if !ok {
		h.logger.Warnf("record: no handler registered for action %s", msg.Action)
		return
	}
	fn(sender, msg)
}

// DestroyTransition implements transitionDestroyer for Deletion: it
// tears down name's Transition, if any, and removes it from the table.
func (h *Handler) DestroyTransition(name string) {
	h.mutex.Lock()
	t, ok := h.transitions[name]
	if ok {
		delete(h.transitions, name)
	}
	h.mutex.Unlock()
	if ok {
		t.Destroy()
	}
}

func (h *Handler) transitionComplete(name string) {
	h.mutex.Lock()
	delete(h.transitions, name)
	h.mutex.Unlock()
}

// decompose returns the set of base actions a compound action must
// independently clear permission for, per spec §4.9. Plain actions
// decompose to themselves.
func decompose(a Action) []Action {
	switch a {
	case ActionSubscribeCreateAndRead:
		return []Action{ActionRead, ActionUpdate}
	case ActionSubscribeAndHead:
		return []Action{ActionHead}
	case ActionCreateAndUpdate:
		return []Action{ActionUpdate}
	case ActionCreateAndPatch:
		return []Action{ActionPatch}
	default:
		return []Action{a}
	}
}

// checkPermission runs every constituent action of msg.Action through
// the configured PermissionEvaluator, all of which must be allowed,
// and invokes allow() on success or deny(err)/deny(nil) on the first
// rejection or evaluator error.
func (h *Handler) checkPermission(sender Sender, msg Message, allow func(), deny func(err error)) {
	actions := decompose(msg.Action)
	var step func(i int)
	step = func(i int) {
		if i >= len(actions) {
			allow()
			return
		}
		sub := msg.shallowWithAction(actions[i])
		h.permissions.CanPerformAction(sender.User(), sub, func(err error, allowed bool) {
			if err != nil {
				deny(err)
				return
			}
			if !allowed {
				deny(nil)
				return
			}
			step(i + 1)
		}, sender.AuthData(), sender)
	}
	step(0)
}

func (h *Handler) denyMessage(sender Sender, msg Message, err error) {
	action := ActionMessageDenied
	if err != nil {
		action = ActionMessagePermissionError
	}
	sender.Send(Message{
		Topic:          TopicRecord,
		Action:         action,
		Name:           msg.Name,
		OriginalAction: msg.Action,
		CorrelationID:  msg.CorrelationID,
	})
}

func (h *Handler) handleRead(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.coalescer.Load(msg.Name, func(rec *Record, err error) {
			h.replyRead(sender, msg, rec, err)
		})
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleHead(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.coalescer.Load(msg.Name, func(rec *Record, err error) {
			h.replyHead(sender, msg, rec, err)
		})
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleSubscribeCreateAndRead(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.subs.Subscribe(msg, sender)
		h.createOrRead(sender, msg)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleSubscribeAndHead(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.subs.Subscribe(msg, sender)
		h.coalescer.Load(msg.Name, func(rec *Record, err error) {
			h.replyHead(sender, msg, rec, err)
		})
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

// createOrRead resolves SUBSCRIBE_CREATE_AND_READ's read half (spec
// §4.6): if the record already exists, its current value is returned;
// otherwise an empty record at version 0 is created through the
// ordinary write pipeline (so pattern listeners and subscribers see
// the creation) and then echoed back to the requester.
func (h *Handler) createOrRead(sender Sender, msg Message) {
	h.coalescer.Load(msg.Name, func(rec *Record, err error) {
		if err != nil {
			h.replyRead(sender, msg, nil, err)
			return
		}
		if rec != nil {
			h.replyRead(sender, msg, rec, nil)
			return
		}

		h.patternGate.RequestCreate(msg.Name, func(allowed bool) {
			if !allowed {
				sender.Send(Message{
					Topic:          TopicRecord,
					Action:         ActionMessageDenied,
					Name:           msg.Name,
					OriginalAction: msg.Action,
					CorrelationID:  msg.CorrelationID,
				})
				return
			}

			create := msg
			create.Action = ActionUpdate
			create.Version = 0
			if len(create.Data) == 0 {
				create.Data = []byte(`{}`)
			}
			h.routeWrite(sender, create, true)
			h.replyRead(sender, msg, &Record{Name: msg.Name, Version: 0, Data: create.Data}, nil)
		})
	})
}

func (h *Handler) replyRead(sender Sender, msg Message, rec *Record, err error) {
	if err != nil {
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionRecordLoadError,
			Name:           msg.Name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	}
	if rec == nil {
		sender.Send(Message{
			Topic:         TopicRecord,
			Action:        ActionReadResponse,
			Name:          msg.Name,
			HasVersion:    false,
			CorrelationID: msg.CorrelationID,
		})
		return
	}
	sender.Send(Message{
		Topic:         TopicRecord,
		Action:        ActionReadResponse,
		Name:          msg.Name,
		Version:       rec.Version,
		HasVersion:    true,
		Data:          rec.Data,
		CorrelationID: msg.CorrelationID,
	})
}

func (h *Handler) replyHead(sender Sender, msg Message, rec *Record, err error) {
	if err != nil {
		// Surfaced explicitly rather than collapsed to an absent-record
		// HEAD_RESPONSE, so a caller can tell "doesn't exist" from
		// "couldn't be loaded" (spec §9 open question).
		sender.Send(Message{
			Topic:          TopicRecord,
			Action:         ActionRecordLoadError,
			Name:           msg.Name,
			OriginalAction: msg.Action,
			CorrelationID:  msg.CorrelationID,
		})
		return
	}
	version := int64(-1)
	has := false
	if rec != nil {
		version = rec.Version
		has = true
	}
	sender.Send(Message{
		Topic:         TopicRecord,
		Action:        ActionHeadResponse,
		Name:          msg.Name,
		Version:       version,
		HasVersion:    has,
		CorrelationID: msg.CorrelationID,
	})
}

func (h *Handler) handleCreateAndUpdate(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.routeWrite(sender, msg, true)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleCreateAndPatch(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.routeWrite(sender, msg, true)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleUpdate(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.routeWrite(sender, msg, false)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handlePatch(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.routeWrite(sender, msg, false)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleErase(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.routeWrite(sender, msg, false)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

// routeWrite normalizes a compound create action down to the base
// write it carries (CREATE_AND_UPDATE -> UPDATE, CREATE_AND_PATCH ->
// PATCH) so the Transition and Hot-Path Writer see the right step
// kind instead of every upsert collapsing into a whole-value write,
// then sends msg down the hot path when its name matches a configured
// hot-path prefix — the Hot-Path Writer itself rejects patch/erase
// with INVALID_PATCH_ON_HOTPATH (spec §4.7, scenario S5) — or
// otherwise finds or creates the record's Transition and enqueues the
// step (spec §4.5).
func (h *Handler) routeWrite(sender Sender, msg Message, upsert bool) {
	switch msg.Action {
	case ActionCreateAndUpdate:
		msg.Action = ActionUpdate
	case ActionCreateAndPatch:
		msg.Action = ActionPatch
	}

	if h.hotpath.Matches(msg.Name) {
		h.hotpath.Write(sender, msg)
		return
	}

	h.mutex.Lock()
	t, exists := h.transitions[msg.Name]
	if exists {
		h.mutex.Unlock()
		t.Add(sender, msg, upsert)
		return
	}
	h.mutex.Unlock()

	h.coalescer.Load(msg.Name, func(rec *Record, err error) {
		if err != nil {
			sender.Send(Message{
				Topic:          TopicRecord,
				Action:         ActionRecordLoadError,
				Name:           msg.Name,
				OriginalAction: msg.Action,
				CorrelationID:  msg.CorrelationID,
			})
			return
		}

		h.mutex.Lock()
		if t, raced := h.transitions[msg.Name]; raced {
			h.mutex.Unlock()
			t.Add(sender, msg, upsert)
			return
		}
		newTransition := NewTransition(msg.Name, rec, h.facade, h.gate, h.subs, h.logger, h.transitionComplete)
		h.transitions[msg.Name] = newTransition
		h.mutex.Unlock()

		newTransition.Add(sender, msg, upsert)
	})
}

func (h *Handler) handleDelete(sender Sender, msg Message) {
	h.checkPermission(sender, msg, func() {
		h.deletion.Local(sender, msg, h)
	}, func(err error) { h.denyMessage(sender, msg, err) })
}

func (h *Handler) handleDeleteSuccess(sender Sender, msg Message) {
	msg.IsRemote = true
	h.deletion.Remote(sender, msg, h)
}

func (h *Handler) handleUnsubscribe(sender Sender, msg Message) {
	h.subs.Unsubscribe(msg, sender, false)
}

func (h *Handler) handleListen(sender Sender, msg Message) {
	h.listeners.Handle(sender, msg)
}

func (h *Handler) handleListenDecision(sender Sender, msg Message) {
	h.patternGate.Resolve(msg.CorrelationID, msg.Action == ActionListenAccept)
}
