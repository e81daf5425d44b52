package internal

import "encoding/json"

// Message is the envelope carried in both directions between the core
// and its senders, as described by the protocol in spec §6. Not every
// field is meaningful for every action; unused fields are left at their
// zero value.
type Message struct {
	Topic   Topic
	Action  Action
	Name    string
	Version int64
	// HasVersion distinguishes "version 0" from "no version supplied".
	HasVersion bool
	// Path is a dot/bracket pointer into Data, used by PATCH and ERASE.
	Path string
	// Data is the raw payload as received from the sender.
	Data json.RawMessage
	// ParsedData is the decoded payload, attached by the core on replies
	// (e.g. WRITE_ACKNOWLEDGEMENT carries [version, error] here).
	ParsedData     interface{}
	CorrelationID  string
	IsWriteAck     bool
	OriginalAction Action
	IsRemote       bool
}

// shallowWithAction copies the message and rewrites its action, used to
// decompose a compound action into independent permission checks
// without touching the original message (spec §4.9).
func (m Message) shallowWithAction(a Action) Message {
	cp := m
	cp.Action = a
	return cp
}

// Record is the in-memory, decoded representation of a record value.
type Record struct {
	Name    string
	Version int64
	Data    json.RawMessage
}

// StoredRecord is the shape persisted by the Cache and Storage
// capabilities (spec §6: `{ _v, _d }`).
type StoredRecord struct {
	Version int64
	Data    json.RawMessage
}
