package bubblekit

import "sync"

// NewChatHandler runs when a stream opens a brand-new conversation.
type NewChatHandler func(*Context) error

// MessageHandler runs when a stream carries a non-empty user message.
type MessageHandler func(*Context) error

// HistoryHandler loads persisted history for a conversation. Returning
// nil records (without an error) falls back to the in-memory session
// export.
type HistoryHandler func(*Context) ([]Record, error)

// Registry holds the application's handlers. Each slot is last-wins:
// registering a handler replaces any previous one.
type Registry struct {
	mu      sync.RWMutex
	newChat NewChatHandler
	message MessageHandler
	history HistoryHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// OnNewChat registers the new-conversation handler.
func (r *Registry) OnNewChat(h NewChatHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.newChat = h
}

// OnMessage registers the user-message handler.
func (r *Registry) OnMessage(h MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message = h
}

// OnHistory registers the history loader.
func (r *Registry) OnHistory(h HistoryHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = h
}

// NewChat returns the registered new-conversation handler, or nil.
func (r *Registry) NewChat() NewChatHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.newChat
}

// Message returns the registered user-message handler, or nil.
func (r *Registry) Message() MessageHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.message
}

// History returns the registered history loader, or nil.
func (r *Registry) History() HistoryHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.history
}

// NewChatFunc adapts a plain function taking the conversation and user
// ids into a NewChatHandler.
func NewChatFunc(fn func(conversationID, userID string) error) NewChatHandler {
	return func(c *Context) error {
		return fn(c.ConversationID(), c.UserID())
	}
}

// MessageFunc adapts a plain function taking the conversation id, user id
// and message text into a MessageHandler.
func MessageFunc(fn func(conversationID, userID, message string) error) MessageHandler {
	return func(c *Context) error {
		return fn(c.ConversationID(), c.UserID(), c.Message())
	}
}

// HistoryFunc adapts a plain function taking the conversation and user
// ids into a HistoryHandler.
func HistoryFunc(fn func(conversationID, userID string) ([]Record, error)) HistoryHandler {
	return func(c *Context) ([]Record, error) {
		return fn(c.ConversationID(), c.UserID())
	}
}
