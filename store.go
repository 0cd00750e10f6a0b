package bubblekit

import (
	"sync"

	"github.com/bubblekit/bubblekit/internal/logger"
)

// SessionStore maps conversation ids to live sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      *logger.Logger
}

// NewSessionStore creates an empty store.
func NewSessionStore(log *logger.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		log:      log.WithComponent("session_store"),
	}
}

// GetOrCreate returns the session for a conversation, creating it on first
// use.
func (s *SessionStore) GetOrCreate(conversationID string) *Session {
	s.mu.RLock()
	session, exists := s.sessions[conversationID]
	s.mu.RUnlock()
	if exists {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check, another request may have created it between the locks.
	if session, exists := s.sessions[conversationID]; exists {
		return session
	}

	session = NewSession(conversationID, s.log)
	s.sessions[conversationID] = session
	s.log.Debug("created session", "conversation_id", conversationID)
	return session
}

// Get returns the session for a conversation if one exists.
func (s *SessionStore) Get(conversationID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[conversationID]
	return session, exists
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
