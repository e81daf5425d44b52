package internal

import "errors"

// Sentinel errors used internally before being translated into an
// outbound error action. Kept distinct from the wire-level action enum
// so callers can use errors.Is through the pipeline, mirroring the
// plain sentinel-error idiom the teacher's storage layer used
// (storage.ErrKeyNotFound in the retrieval pack's torua example).
var (
	// ErrTransitionAborted is handed to write-ack waiters whose
	// Transition was destroyed by the Deletion Coordinator before their
	// step could be persisted (spec §4.5 destroy, §7 "aborted
	// transition").
	ErrTransitionAborted = errors.New("record: transition aborted")

	// ErrInvalidPatchPath is returned by the patch/erase pointer walker
	// when path does not resolve inside the current document.
	ErrInvalidPatchPath = errors.New("record: invalid patch path")
)
