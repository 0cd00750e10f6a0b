package bubblekit

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/bubblekit/bubblekit/internal/logger"
	"github.com/bubblekit/bubblekit/internal/metrics"
)

// StreamSink is the write side of one NDJSON stream. Producers enqueue
// frames with Emit; a single writer goroutine (Run) encodes and flushes
// them in order. The sink stamps streamId and a contiguous seq on every
// frame it accepts, so whatever prefix reaches the wire is gap-free.
type StreamSink struct {
	streamID string
	log      *logger.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	seq    uint64
	closed bool

	ch       chan Frame
	done     chan struct{}
	failed   chan struct{}
	activity chan struct{}

	closeOnce sync.Once
	failOnce  sync.Once

	errMu sync.Mutex
	err   error
}

// NewStreamSink creates a sink with a bounded frame buffer.
func NewStreamSink(streamID string, buffer int, log *logger.Logger, m *metrics.Metrics) *StreamSink {
	if buffer <= 0 {
		buffer = 256
	}
	return &StreamSink{
		streamID: streamID,
		log: log.WithComponent("stream_sink").WithFields(map[string]interface{}{
			"stream_id": streamID,
		}),
		metrics:  m,
		ch:       make(chan Frame, buffer),
		done:     make(chan struct{}),
		failed:   make(chan struct{}),
		activity: make(chan struct{}, 1),
	}
}

// StreamID returns the id stamped on every frame.
func (s *StreamSink) StreamID() string { return s.streamID }

// Emit enqueues a frame and signals stream activity. Called for every
// handler-produced frame; drops silently once the sink is closed or the
// writer has failed.
func (s *StreamSink) Emit(f Frame) {
	s.emit(f, true)
}

// EmitQuiet enqueues a frame without signalling activity. Used for
// started and heartbeat frames, which must not affect the timeout clocks.
func (s *StreamSink) EmitQuiet(f Frame) {
	s.emit(f, false)
}

func (s *StreamSink) emit(f Frame, notify bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.failed:
		s.mu.Unlock()
		return
	default:
	}

	f["streamId"] = s.streamID
	f["seq"] = s.seq
	s.seq++

	// The send happens under the mutex so concurrent producers cannot
	// reorder stamped frames. Close does not take the mutex before
	// closing done, so a blocked send always unblocks.
	select {
	case s.ch <- f:
	case <-s.done:
		s.mu.Unlock()
		return
	case <-s.failed:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if notify {
		select {
		case s.activity <- struct{}{}:
		default:
		}
	}
}

// Run writes frames until the sink is closed or a write fails. It must be
// called exactly once, from its own goroutine. When w is an http.Flusher
// every frame is flushed so clients see it immediately.
func (s *StreamSink) Run(w io.Writer) {
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)

	for {
		select {
		case f := <-s.ch:
			if !s.writeFrame(enc, flusher, f) {
				return
			}
		case <-s.done:
			// Drain what producers managed to enqueue before the close.
			for {
				select {
				case f := <-s.ch:
					if !s.writeFrame(enc, flusher, f) {
						return
					}
				default:
					return
				}
			}
		case <-s.failed:
			return
		}
	}
}

func (s *StreamSink) writeFrame(enc *json.Encoder, flusher http.Flusher, f Frame) bool {
	if err := enc.Encode(f); err != nil {
		s.log.Debug("stream write failed", "error", err)
		s.fail(err)
		return false
	}
	if flusher != nil {
		flusher.Flush()
	}
	if t, ok := f["type"].(string); ok {
		s.metrics.FrameWritten(t)
	}
	return true
}

func (s *StreamSink) fail(err error) {
	s.failOnce.Do(func() {
		s.errMu.Lock()
		s.err = err
		s.errMu.Unlock()
		close(s.failed)
	})
}

// Close stops accepting frames. The writer drains already-enqueued frames
// and exits. Idempotent.
func (s *StreamSink) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Failed is closed when a frame write fails, which is how a client
// disconnect is detected.
func (s *StreamSink) Failed() <-chan struct{} { return s.failed }

// Activity receives a signal for every handler-produced frame. Drives the
// first-event and idle clocks.
func (s *StreamSink) Activity() <-chan struct{} { return s.activity }

// Err returns the write error after Failed is closed.
func (s *StreamSink) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}
