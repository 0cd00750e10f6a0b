package bubblekit

import (
	"context"

	"github.com/bubblekit/bubblekit/internal/logger"
)

// Runtime ties together the session store, the conversation index and the
// handler registry. One Runtime serves all conversations of a process.
type Runtime struct {
	store    *SessionStore
	index    *ConversationIndex
	registry *Registry
	log      *logger.Logger
}

// New creates a runtime with empty state.
func New(log *logger.Logger) *Runtime {
	return &Runtime{
		store:    NewSessionStore(log),
		index:    NewConversationIndex(),
		registry: NewRegistry(),
		log:      log.WithComponent("runtime"),
	}
}

// OnNewChat registers the new-conversation handler. Last registration
// wins.
func (r *Runtime) OnNewChat(h NewChatHandler) { r.registry.OnNewChat(h) }

// OnMessage registers the user-message handler. Last registration wins.
func (r *Runtime) OnMessage(h MessageHandler) { r.registry.OnMessage(h) }

// OnHistory registers the history loader. Last registration wins.
func (r *Runtime) OnHistory(h HistoryHandler) { r.registry.OnHistory(h) }

// Sessions exposes the session store.
func (r *Runtime) Sessions() *SessionStore { return r.store }

// Registry exposes the handler registry.
func (r *Runtime) Registry() *Registry { return r.registry }

// SetConversationList replaces a user's sidebar list.
func (r *Runtime) SetConversationList(userID string, summaries []Summary) error {
	return r.index.Set(userID, summaries)
}

// ConversationList returns a snapshot of a user's sidebar list.
func (r *Runtime) ConversationList(userID string) []Summary {
	return r.index.Get(userID)
}

// ClearConversation drops all bubbles of a conversation. Reports whether
// the conversation had a live session.
func (r *Runtime) ClearConversation(conversationID string) bool {
	session, ok := r.store.Get(conversationID)
	if !ok {
		return false
	}
	session.Clear()
	return true
}

// History resolves a conversation's messages: the registered history
// loader first, falling back to the in-memory session export when no
// loader is registered or the loader yields nil records.
func (r *Runtime) History(ctx context.Context, conversationID, userID string) ([]Record, error) {
	session := r.store.GetOrCreate(conversationID)

	h := r.registry.History()
	if h == nil {
		return session.ExportMessages(), nil
	}

	c := &Context{
		ctx:            ctx,
		runtime:        r,
		session:        session,
		conversationID: conversationID,
		userID:         NormalizeUserID(userID),
	}
	records, err := h(c)
	if err != nil {
		return nil, err
	}
	if records == nil {
		return session.ExportMessages(), nil
	}
	return records, nil
}
