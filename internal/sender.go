package internal

// Sender is the originator of an inbound Message, and the destination
// of any reply the core emits for it. It is implemented by the
// transport layer (out of scope here, per spec §1) and passed through
// the core by reference.
type Sender interface {
	User() string
	AuthData() interface{}
	IsRemote() bool
	Send(msg Message)
}
