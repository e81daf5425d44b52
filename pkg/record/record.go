// Package record implements the record-handling core of a realtime
// data-sync server: named JSON-like records with subscribe/read/
// create/update/patch/delete operations, pattern listeners, per-record
// write serialization with monotonic versioning, a two-tier cache and
// durable storage layer, and a pluggable permission evaluator.
//
// A Handler is the single entry point; everything else in this package
// is either a type it exchanges with callers or a capability a caller
// can implement to plug in its own transport, storage, or permission
// policy. The engine itself lives in the module-private internal
// package; this package only re-exports the shapes callers need and
// wires together the default, in-memory implementations.
package record

import (
	"time"

	"github.com/jabolina/go-record/internal"
)

type (
	// Topic identifies which subsystem a Message belongs to.
	Topic = internal.Topic
	// Action is the wire-level verb carried by a Message.
	Action = internal.Action
	// Message is the envelope exchanged between the core and a Sender.
	Message = internal.Message
	// Record is the decoded representation of a record's current value.
	Record = internal.Record
	// StoredRecord is the shape persisted by Cache and Storage.
	StoredRecord = internal.StoredRecord

	// Sender is the originator of and reply destination for a Message.
	Sender = internal.Sender
	// Cache is the fast, first-consulted storage tier.
	Cache = internal.Cache
	// Storage is the durable, second-tier storage.
	Storage = internal.Storage
	// SubscriptionRegistry tracks per-record subscribers.
	SubscriptionRegistry = internal.SubscriptionRegistry
	// SubscriptionListener observes subscribe/unsubscribe activity.
	SubscriptionListener = internal.SubscriptionListener
	// ListenerRegistry tracks pattern listeners.
	ListenerRegistry = internal.ListenerRegistry
	// PermissionEvaluator decides whether a user may perform an action.
	PermissionEvaluator = internal.PermissionEvaluator
	// Logger is the logging backend the core reports through.
	Logger = internal.Logger

	// Config carries Handler construction parameters.
	Config = internal.Config
)

const (
	TopicRecord = internal.TopicRecord

	ActionSubscribeCreateAndRead = internal.ActionSubscribeCreateAndRead
	ActionCreateAndUpdate        = internal.ActionCreateAndUpdate
	ActionCreateAndPatch         = internal.ActionCreateAndPatch
	ActionRead                   = internal.ActionRead
	ActionHead                   = internal.ActionHead
	ActionSubscribeAndHead       = internal.ActionSubscribeAndHead
	ActionUpdate                 = internal.ActionUpdate
	ActionPatch                  = internal.ActionPatch
	ActionErase                  = internal.ActionErase
	ActionDelete                 = internal.ActionDelete
	ActionDeleteSuccess          = internal.ActionDeleteSuccess
	ActionUnsubscribe            = internal.ActionUnsubscribe
	ActionListen                 = internal.ActionListen
	ActionUnlisten               = internal.ActionUnlisten
	ActionListenAccept           = internal.ActionListenAccept
	ActionListenReject           = internal.ActionListenReject

	ActionCreateAndUpdateWithWriteAck = internal.ActionCreateAndUpdateWithWriteAck
	ActionCreateAndPatchWithWriteAck  = internal.ActionCreateAndPatchWithWriteAck
	ActionUpdateWithWriteAck          = internal.ActionUpdateWithWriteAck
	ActionPatchWithWriteAck           = internal.ActionPatchWithWriteAck
	ActionEraseWithWriteAck           = internal.ActionEraseWithWriteAck

	ActionReadResponse           = internal.ActionReadResponse
	ActionHeadResponse           = internal.ActionHeadResponse
	ActionWriteAcknowledgement   = internal.ActionWriteAcknowledgement
	ActionSubscribeAck           = internal.ActionSubscribeAck
	ActionUnsubscribeAck         = internal.ActionUnsubscribeAck
	ActionRecordNotFound         = internal.ActionRecordNotFound
	ActionRecordLoadError        = internal.ActionRecordLoadError
	ActionRecordCreateError      = internal.ActionRecordCreateError
	ActionRecordUpdateError      = internal.ActionRecordUpdateError
	ActionRecordDeleteError      = internal.ActionRecordDeleteError
	ActionVersionExists          = internal.ActionVersionExists
	ActionInvalidVersion         = internal.ActionInvalidVersion
	ActionInvalidPatchOnHotpath  = internal.ActionInvalidPatchOnHotpath
	ActionMessageDenied          = internal.ActionMessageDenied
	ActionMessagePermissionError = internal.ActionMessagePermissionError
)

var (
	// ErrTransitionAborted is handed to write-ack waiters whose pending
	// write was discarded by a concurrent record deletion.
	ErrTransitionAborted = internal.ErrTransitionAborted
	// ErrInvalidPatchPath is returned when a PATCH/ERASE path does not
	// resolve inside the record's current document.
	ErrInvalidPatchPath = internal.ErrInvalidPatchPath
)

// DefaultConfig returns a Config with the package's default knobs: no
// storage-exclusion or hot-path prefixes, a five minute cache TTL, and
// a logrus-backed default Logger.
func DefaultConfig() Config {
	return internal.DefaultConfig()
}

// NewMemoryCache returns the default ttlcache-backed Cache
// implementation.
func NewMemoryCache(ttl time.Duration) Cache {
	return internal.NewMemoryCache(ttl)
}

// NewMemoryStorage returns the default in-process, map-backed Storage
// implementation. It has no persistence across restarts; production
// deployments supply their own Storage.
func NewMemoryStorage() Storage {
	return internal.NewMemoryStorage()
}

// NewMemorySubscriptionRegistry returns the default, single-process
// SubscriptionRegistry implementation.
func NewMemorySubscriptionRegistry() SubscriptionRegistry {
	return internal.NewMemorySubscriptionRegistry()
}

// NewMemoryListenerRegistry returns the default pattern-listener
// ListenerRegistry implementation.
func NewMemoryListenerRegistry() ListenerRegistry {
	return internal.NewMemoryListenerRegistry()
}

// NewAllowAllPermissionEvaluator returns a PermissionEvaluator that
// permits every action unconditionally; useful for tests and for
// deployments that enforce permissions upstream of this package.
func NewAllowAllPermissionEvaluator() PermissionEvaluator {
	return internal.NewAllowAllPermissionEvaluator()
}

// NewDefaultLogger returns the prometheus/common/log-backed default
// Logger implementation.
func NewDefaultLogger() Logger {
	return internal.NewDefaultLogger()
}

// Handler is the record-handling core's single entry point: every
// inbound Message from every Sender is routed through Handle.
type Handler struct {
	inner *internal.Handler
}

// NewHandler wires a Handler from cfg, a durable Storage
// implementation, and the subscription/listener/permission
// capabilities a deployment supplies. Callers that want the default
// in-memory registries can pass NewMemorySubscriptionRegistry(),
// NewMemoryListenerRegistry(), and NewAllowAllPermissionEvaluator().
func NewHandler(cfg Config, storage Storage, subs SubscriptionRegistry, listeners ListenerRegistry, permissions PermissionEvaluator) *Handler {
	return &Handler{inner: internal.NewHandler(cfg, storage, subs, listeners, permissions)}
}

// Handle dispatches msg from sender through the core.
func (h *Handler) Handle(sender Sender, msg Message) {
	h.inner.Handle(sender, msg)
}
