package bubblekit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bubblekit/bubblekit/internal/logger"
	"github.com/bubblekit/bubblekit/internal/metrics"
)

// ControllerConfig tunes the stream lifecycle clocks.
type ControllerConfig struct {
	// Heartbeat is the interval between heartbeat frames.
	Heartbeat time.Duration
	// IdleTimeout interrupts a stream with no handler frames for this
	// long. Heartbeats do not reset it.
	IdleTimeout time.Duration
	// FirstEventTimeout interrupts a stream whose handlers never produce
	// a first frame.
	FirstEventTimeout time.Duration
	// SinkBuffer is the per-stream frame buffer size.
	SinkBuffer int
}

// DefaultControllerConfig returns the stock clocks: 15s heartbeats, 60s
// idle, 30s to first event.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Heartbeat:         15 * time.Second,
		IdleTimeout:       60 * time.Second,
		FirstEventTimeout: 30 * time.Second,
		SinkBuffer:        256,
	}
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	def := DefaultControllerConfig()
	if c.Heartbeat <= 0 {
		c.Heartbeat = def.Heartbeat
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.FirstEventTimeout <= 0 {
		c.FirstEventTimeout = def.FirstEventTimeout
	}
	if c.SinkBuffer <= 0 {
		c.SinkBuffer = def.SinkBuffer
	}
	return c
}

// Controller opens streams, runs their lifecycle, and tracks them for
// cancellation.
type Controller struct {
	runtime *Runtime
	cfg     ControllerConfig
	log     *logger.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	active map[string]*Stream
}

// NewController creates a controller. The metrics argument may be nil.
func NewController(rt *Runtime, cfg ControllerConfig, log *logger.Logger, m *metrics.Metrics) *Controller {
	return &Controller{
		runtime: rt,
		cfg:     cfg.withDefaults(),
		log:     log.WithComponent("stream_controller"),
		metrics: m,
		active:  make(map[string]*Stream),
	}
}

// StreamRequest describes an incoming stream open.
type StreamRequest struct {
	// ConversationID selects the conversation; empty mints a new one.
	ConversationID string
	// Message is the user message, may be empty.
	Message string
	// UserID is the raw requesting user id, normalized internally.
	UserID string
}

// Stream is one open NDJSON stream.
type Stream struct {
	controller *Controller
	sink       *StreamSink
	session    *Session

	conversationID string
	userID         string
	message        string
	minted         bool

	cancelCh   chan struct{}
	cancelOnce sync.Once

	log *logger.Logger
}

// OpenStream binds a new stream to a conversation. Returns
// ErrStreamAlreadyAttached when the conversation already has one, before
// any frame is produced, so the transport can still answer with a plain
// error status.
func (c *Controller) OpenStream(req StreamRequest) (*Stream, error) {
	conversationID := strings.TrimSpace(req.ConversationID)
	minted := conversationID == ""
	if minted {
		conversationID = NewID()
	}

	session := c.runtime.store.GetOrCreate(conversationID)
	streamID := NewID()
	sink := NewStreamSink(streamID, c.cfg.SinkBuffer, c.log, c.metrics)

	if err := session.AttachStream(sink); err != nil {
		return nil, err
	}

	st := &Stream{
		controller:     c,
		sink:           sink,
		session:        session,
		conversationID: conversationID,
		userID:         NormalizeUserID(req.UserID),
		message:        req.Message,
		minted:         minted,
		cancelCh:       make(chan struct{}),
		log: c.log.WithFields(map[string]interface{}{
			"stream_id":       streamID,
			"conversation_id": conversationID,
		}),
	}

	c.mu.Lock()
	c.active[streamID] = st
	c.mu.Unlock()
	c.metrics.StreamOpened()

	st.log.Info("stream opened", "minted", minted, "user_id", st.userID)
	return st, nil
}

// Cancel requests cooperative cancellation of a stream. Idempotent;
// returns false for unknown or already torn down stream ids.
func (c *Controller) Cancel(streamID string) bool {
	c.mu.Lock()
	st := c.active[streamID]
	c.mu.Unlock()
	if st == nil {
		return false
	}
	st.cancel()
	return true
}

func (c *Controller) unregister(streamID string) {
	c.mu.Lock()
	delete(c.active, streamID)
	c.mu.Unlock()
}

// ID returns the stream id.
func (st *Stream) ID() string { return st.sink.StreamID() }

// ConversationID returns the conversation the stream serves, including a
// freshly minted id.
func (st *Stream) ConversationID() string { return st.conversationID }

func (st *Stream) cancel() {
	st.cancelOnce.Do(func() { close(st.cancelCh) })
}

// Serve runs the stream to completion: started frame, handlers,
// heartbeats and timeout clocks, then per-bubble finalization and exactly
// one terminal frame. Blocks until the writer goroutine exits.
func (st *Stream) Serve(ctx context.Context, w io.Writer) {
	cfg := st.controller.cfg

	// The handlers get a derived context so out-of-band cancellation and
	// timeouts reach code blocking on Context.Done, not just a client
	// disconnect.
	handlerCtx, cancelHandlers := context.WithCancel(ctx)
	defer cancelHandlers()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		st.sink.Run(w)
	}()

	st.sink.EmitQuiet(startedFrame(st.conversationID))
	if st.minted {
		// The meta frame tells the client its new conversation id. It
		// counts as the first event.
		st.sink.Emit(metaFrame(st.conversationID))
	}
	if st.willInvokeMessage() {
		// Announced quietly: the clocks only trust frames the handler
		// itself produced.
		st.sink.EmitQuiet(progressFrame(StageProcessing))
	}

	handlerDone := make(chan error, 1)
	go st.runHandlers(handlerCtx, handlerDone)

	firstEvent := time.NewTimer(cfg.FirstEventTimeout)
	idle := time.NewTimer(cfg.IdleTimeout)
	heartbeat := time.NewTicker(cfg.Heartbeat)
	defer func() {
		firstEvent.Stop()
		idle.Stop()
		heartbeat.Stop()
	}()

	var (
		reason         string
		handlerErr     error
		firstEventSeen bool
	)

loop:
	for {
		select {
		case err := <-handlerDone:
			if err != nil {
				reason = ReasonHandlerError
				handlerErr = err
			} else {
				reason = ReasonNormal
			}
			break loop
		case <-ctx.Done():
			reason = ReasonDisconnect
			break loop
		case <-st.cancelCh:
			reason = ReasonClientCancel
			break loop
		case <-st.sink.Failed():
			reason = ReasonDisconnect
			break loop
		case <-st.sink.Activity():
			if !firstEventSeen {
				firstEventSeen = true
				firstEvent.Stop()
			}
			resetTimer(idle, cfg.IdleTimeout)
		case <-firstEvent.C:
			reason = ReasonFirstEventTimeout
			break loop
		case <-idle.C:
			reason = ReasonIdleTimeout
			break loop
		case <-heartbeat.C:
			st.sink.EmitQuiet(heartbeatFrame())
		}
	}

	cancelHandlers()
	st.finish(reason, handlerErr, writerDone)
}

func (st *Stream) runHandlers(ctx context.Context, done chan<- error) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		done <- err
	}()

	c := &Context{
		ctx:            ctx,
		runtime:        st.controller.runtime,
		session:        st.session,
		sink:           st.sink,
		conversationID: st.conversationID,
		userID:         st.userID,
		message:        st.message,
	}

	registry := st.controller.runtime.registry
	if st.minted {
		if h := registry.NewChat(); h != nil {
			if err = h(c); err != nil {
				return
			}
		}
	}
	if st.willInvokeMessage() {
		err = registry.Message()(c)
	}
}

func (st *Stream) willInvokeMessage() bool {
	return strings.TrimSpace(st.message) != "" &&
		st.controller.runtime.registry.Message() != nil
}

// finish closes out the stream: pending bubbles get their done frames,
// the terminal frame goes out, and only then does the writer drain and
// exit. FinalizeAndDetach leaves the sink writable by this method alone,
// so a handler still running after a timeout cannot write past the
// terminal frame.
func (st *Stream) finish(reason string, handlerErr error, writerDone <-chan struct{}) {
	finalized := st.session.FinalizeAndDetach(st.sink)
	if len(finalized) > 0 {
		st.log.Info("finalized pending bubbles", "count", len(finalized))
	}

	switch reason {
	case ReasonNormal:
		st.sink.Emit(terminalDoneFrame(ReasonNormal))
	case ReasonHandlerError:
		st.log.Error("handler failed", "error", handlerErr)
		st.sink.Emit(terminalErrorFrame(ReasonHandlerError, handlerErr.Error()))
	default:
		st.sink.Emit(terminalInterruptedFrame(reason))
	}

	st.sink.Close()
	<-writerDone

	st.controller.unregister(st.sink.StreamID())
	st.controller.metrics.StreamClosed(reason)
	st.log.Info("stream closed", "reason", reason)
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
