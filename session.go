package bubblekit

import (
	"sync"

	"github.com/bubblekit/bubblekit/internal/logger"
)

// Session holds the bubble state of one conversation plus the attached
// stream sink, if any. One mutex guards both so that a handler racing the
// controller's shutdown path sees a consistent view.
type Session struct {
	conversationID string

	mu      sync.Mutex
	bubbles map[string]*bubbleState
	order   []string
	sink    *StreamSink

	log *logger.Logger
}

// NewSession creates an empty session for a conversation.
func NewSession(conversationID string, log *logger.Logger) *Session {
	return &Session{
		conversationID: conversationID,
		bubbles:        make(map[string]*bubbleState),
		log: log.WithComponent("session").WithFields(map[string]interface{}{
			"conversation_id": conversationID,
		}),
	}
}

// ConversationID returns the conversation this session belongs to.
func (s *Session) ConversationID() string {
	return s.conversationID
}

// AttachStream binds a sink to the session. At most one stream may be
// attached per conversation at a time.
func (s *Session) AttachStream(sink *StreamSink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink != nil {
		return ErrStreamAlreadyAttached
	}
	s.sink = sink
	return nil
}

// DetachStream unbinds the sink if it is still the attached one. Safe to
// call more than once.
func (s *Session) DetachStream(sink *StreamSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == sink {
		s.sink = nil
	}
}

// HasStream reports whether a sink is currently attached.
func (s *Session) HasStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink != nil
}

func (s *Session) emitLocked(f Frame) {
	if s.sink != nil {
		s.sink.Emit(f)
	}
}

// owned reports whether the state still belongs to this session. After
// Clear, surviving handles fail this check and every operation on them
// becomes a silent no-op.
func (s *Session) owned(state *bubbleState) bool {
	return s.bubbles[state.id] == state
}

// send installs a new bubble and emits its initial frames: one config
// frame with the full template patch, then a set frame when the template
// was prefilled. Without an attached sink the bubble is finalized on the
// spot since no live updates can ever reach a client.
func (s *Session) send(state *bubbleState, patch map[string]interface{}, prefilled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bubbles[state.id]; exists {
		return ErrDuplicateBubble
	}
	s.bubbles[state.id] = state
	s.order = append(s.order, state.id)

	s.applyConfigLocked(state, patch)
	if prefilled {
		s.emitLocked(setFrame(state.id, state.content))
	}

	if s.sink == nil {
		state.done = true
	}
	return nil
}

func (s *Session) setContent(state *bubbleState, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned(state) {
		return
	}
	state.content = content
	if !state.done {
		s.emitLocked(setFrame(state.id, content))
	}
}

func (s *Session) streamContent(state *bubbleState, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned(state) {
		return
	}
	state.content += chunk
	if !state.done {
		s.emitLocked(deltaFrame(state.id, chunk))
	}
}

func (s *Session) applyConfig(state *bubbleState, patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned(state) {
		return nil
	}
	s.applyConfigLocked(state, patch)
	return nil
}

// applyConfigLocked folds a patch into the bubble state and emits one
// config frame carrying the patch as given. Role and type move onto the
// bubble itself; colors merge structurally; everything else replaces.
func (s *Session) applyConfigLocked(state *bubbleState, patch map[string]interface{}) {
	if len(patch) == 0 {
		return
	}

	if state.config == nil {
		state.config = make(map[string]interface{})
	}
	for k, v := range patch {
		switch k {
		case "role":
			if role, ok := v.(string); ok {
				state.role = role
			}
		case "type":
			if typ, ok := v.(string); ok {
				state.typ = typ
			}
		case "colors":
			incoming, ok := v.(map[string]interface{})
			if !ok {
				state.config["colors"] = v
				continue
			}
			existing, _ := state.config["colors"].(map[string]interface{})
			state.config["colors"] = mergeColors(existing, incoming)
		default:
			state.config[k] = v
		}
	}

	if !state.done {
		s.emitLocked(configFrame(state.id, patch))
	}
}

func (s *Session) markDone(state *bubbleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.owned(state) || state.done {
		return
	}
	state.done = true
	s.emitLocked(bubbleDoneFrame(state.id))
}

func (s *Session) bubbleByID(id string) (*bubbleState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.bubbles[id]
	return state, ok
}

// FinalizePending marks every still-open bubble done, emitting a done
// frame per bubble. Runs before the terminal frame so the wire never ends
// with an open bubble. Returns the finalized ids.
func (s *Session) FinalizePending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeLocked()
}

// FinalizeAndDetach finalizes pending bubbles and unbinds the sink in one
// critical section, so a handler that ignores cancellation cannot slip a
// frame in after the per-bubble done frames. After this returns, only the
// caller can still write to the sink.
func (s *Session) FinalizeAndDetach(sink *StreamSink) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	finalized := s.finalizeLocked()
	if s.sink == sink {
		s.sink = nil
	}
	return finalized
}

func (s *Session) finalizeLocked() []string {
	var finalized []string
	for _, id := range s.order {
		state := s.bubbles[id]
		if state == nil || state.done {
			continue
		}
		state.done = true
		s.emitLocked(bubbleDoneFrame(id))
		finalized = append(finalized, id)
		s.log.Warn("auto-finalized pending bubble", "bubble_id", id)
	}
	return finalized
}

// ExportMessages snapshots the session bubbles in creation order. Open
// bubbles are included with their content so far.
func (s *Session) ExportMessages() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		if state := s.bubbles[id]; state != nil {
			records = append(records, state.record())
		}
	}
	return records
}

// Clear drops all bubble state. An attached sink survives: the stream
// stays open and later sends go to the same client.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bubbles = make(map[string]*bubbleState)
	s.order = nil
}

// install puts a record-backed bubble into the session as already done.
// Used by Context.Load to replay persisted history.
func (s *Session) install(state *bubbleState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bubbles[state.id]; exists {
		return
	}
	s.bubbles[state.id] = state
	s.order = append(s.order, state.id)
}
