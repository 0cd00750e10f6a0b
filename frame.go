package bubblekit

// Frame is one NDJSON object on the wire. The sink stamps "streamId" and
// "seq" on every frame before it is written.
type Frame map[string]interface{}

// Frame types.
const (
	FrameStarted     = "started"
	FrameMeta        = "meta"
	FrameProgress    = "progress"
	FrameHeartbeat   = "heartbeat"
	FrameConfig      = "config"
	FrameSet         = "set"
	FrameDelta       = "delta"
	FrameDone        = "done"
	FrameInterrupted = "interrupted"
	FrameError       = "error"
)

// Terminal and interruption reasons.
const (
	ReasonNormal            = "normal"
	ReasonClientCancel      = "client_cancel"
	ReasonDisconnect        = "disconnect"
	ReasonIdleTimeout       = "idle_timeout"
	ReasonFirstEventTimeout = "first_event_timeout"
	ReasonHandlerError      = "handler_error"
)

// StageProcessing is the progress stage emitted before the message handler.
const StageProcessing = "processing"

func startedFrame(conversationID string) Frame {
	return Frame{"type": FrameStarted, "conversationId": conversationID}
}

func metaFrame(conversationID string) Frame {
	return Frame{"type": FrameMeta, "conversationId": conversationID}
}

func progressFrame(stage string) Frame {
	return Frame{"type": FrameProgress, "stage": stage}
}

func heartbeatFrame() Frame {
	return Frame{"type": FrameHeartbeat}
}

func configFrame(bubbleID string, patch map[string]interface{}) Frame {
	return Frame{"type": FrameConfig, "bubbleId": bubbleID, "patch": patch}
}

func setFrame(bubbleID, content string) Frame {
	return Frame{"type": FrameSet, "bubbleId": bubbleID, "content": content}
}

func deltaFrame(bubbleID, content string) Frame {
	return Frame{"type": FrameDelta, "bubbleId": bubbleID, "content": content}
}

func bubbleDoneFrame(bubbleID string) Frame {
	return Frame{"type": FrameDone, "bubbleId": bubbleID}
}

func terminalDoneFrame(reason string) Frame {
	return Frame{"type": FrameDone, "reason": reason}
}

func terminalInterruptedFrame(reason string) Frame {
	return Frame{"type": FrameInterrupted, "reason": reason}
}

func terminalErrorFrame(reason, message string) Frame {
	return Frame{"type": FrameError, "reason": reason, "message": message}
}
