package internal

// Topic identifies which subsystem a Message belongs to. The core only
// ever deals with RECORD traffic; other topics are routed upstream
// before reaching this package.
type Topic int

const (
	TopicRecord Topic = iota
)

// Action is the wire-level verb carried by a Message, both inbound
// (client/peer requests) and outbound (replies/acks/errors emitted by
// the core).
type Action int

const (
	// Inbound actions.
	ActionSubscribeCreateAndRead Action = iota
	ActionCreateAndUpdate
	ActionCreateAndPatch
	ActionRead
	ActionHead
	ActionSubscribeAndHead
	ActionUpdate
	ActionPatch
	ActionErase
	ActionDelete
	ActionDeleteSuccess
	ActionUnsubscribe
	ActionListen
	ActionUnlisten
	ActionListenAccept
	ActionListenReject

	// Write-ack variants. The dispatcher normalizes these to their base
	// action plus IsWriteAck = true before anything else sees them; they
	// exist only so a Sender can name them on the wire.
	ActionCreateAndUpdateWithWriteAck
	ActionCreateAndPatchWithWriteAck
	ActionUpdateWithWriteAck
	ActionPatchWithWriteAck
	ActionEraseWithWriteAck

	// Outbound actions produced by the core.
	ActionReadResponse
	ActionHeadResponse
	ActionWriteAcknowledgement
	ActionSubscribeAck
	ActionUnsubscribeAck
	ActionRecordNotFound
	ActionRecordLoadError
	ActionRecordCreateError
	ActionRecordUpdateError
	ActionRecordDeleteError
	ActionVersionExists
	ActionInvalidVersion
	ActionInvalidPatchOnHotpath
	ActionMessageDenied
	ActionMessagePermissionError

	actionUnknown
)

// baseAction strips a write-ack variant down to the action the rest of
// the core understands, reporting whether an ack was requested.
func baseAction(a Action) (Action, bool) {
	switch a {
	case ActionCreateAndUpdateWithWriteAck:
		return ActionCreateAndUpdate, true
	case ActionCreateAndPatchWithWriteAck:
		return ActionCreateAndPatch, true
	case ActionUpdateWithWriteAck:
		return ActionUpdate, true
	case ActionPatchWithWriteAck:
		return ActionPatch, true
	case ActionEraseWithWriteAck:
		return ActionErase, true
	default:
		return a, false
	}
}

func (a Action) String() string {
	switch a {
	case ActionSubscribeCreateAndRead:
		return "SUBSCRIBE_CREATE_AND_READ"
	case ActionCreateAndUpdate:
		return "CREATE_AND_UPDATE"
	case ActionCreateAndPatch:
		return "CREATE_AND_PATCH"
	case ActionRead:
		return "READ"
	case ActionHead:
		return "HEAD"
	case ActionSubscribeAndHead:
		return "SUBSCRIBE_AND_HEAD"
	case ActionUpdate:
		return "UPDATE"
	case ActionPatch:
		return "PATCH"
	case ActionErase:
		return "ERASE"
	case ActionDelete:
		return "DELETE"
	case ActionDeleteSuccess:
		return "DELETE_SUCCESS"
	case ActionUnsubscribe:
		return "UNSUBSCRIBE"
	case ActionListen:
		return "LISTEN"
	case ActionUnlisten:
		return "UNLISTEN"
	case ActionListenAccept:
		return "LISTEN_ACCEPT"
	case ActionListenReject:
		return "LISTEN_REJECT"
	case ActionReadResponse:
		return "READ_RESPONSE"
	case ActionHeadResponse:
		return "HEAD_RESPONSE"
	case ActionWriteAcknowledgement:
		return "WRITE_ACKNOWLEDGEMENT"
	case ActionSubscribeAck:
		return "SUBSCRIBE_ACK"
	case ActionUnsubscribeAck:
		return "UNSUBSCRIBE_ACK"
	case ActionRecordNotFound:
		return "RECORD_NOT_FOUND"
	case ActionRecordLoadError:
		return "RECORD_LOAD_ERROR"
	case ActionRecordCreateError:
		return "RECORD_CREATE_ERROR"
	case ActionRecordUpdateError:
		return "RECORD_UPDATE_ERROR"
	case ActionRecordDeleteError:
		return "RECORD_DELETE_ERROR"
	case ActionVersionExists:
		return "VERSION_EXISTS"
	case ActionInvalidVersion:
		return "INVALID_VERSION"
	case ActionInvalidPatchOnHotpath:
		return "INVALID_PATCH_ON_HOTPATH"
	case ActionMessageDenied:
		return "MESSAGE_DENIED"
	case ActionMessagePermissionError:
		return "MESSAGE_PERMISSION_ERROR"
	default:
		return "UNKNOWN"
	}
}
