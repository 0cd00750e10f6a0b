package bubblekit

import (
	"fmt"
	"strings"
	"sync"
)

// Summary is one conversation entry in the sidebar list.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (s Summary) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: summary id must be non-empty", ErrInvalidConfig)
	}
	if s.UpdatedAt < 0 {
		return fmt.Errorf("%w: summary updatedAt must not be negative", ErrInvalidConfig)
	}
	return nil
}

// NewSummary validates and builds a conversation list entry.
func NewSummary(id, title string, updatedAt int64) (Summary, error) {
	s := Summary{ID: id, Title: title, UpdatedAt: updatedAt}
	if err := s.validate(); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// ConversationIndex is the per-user conversation list. It only holds
// what the application pushes into it, in the order the application set,
// and the runtime never derives entries from sessions. Sorting is the
// handler's business.
type ConversationIndex struct {
	mu    sync.RWMutex
	lists map[string][]Summary
}

// NewConversationIndex creates an empty index.
func NewConversationIndex() *ConversationIndex {
	return &ConversationIndex{lists: make(map[string][]Summary)}
}

// Set replaces the conversation list for a user. Entries are validated
// and copied; their order is preserved exactly as given.
func (c *ConversationIndex) Set(userID string, summaries []Summary) error {
	for _, s := range summaries {
		if err := s.validate(); err != nil {
			return err
		}
	}

	list := make([]Summary, len(summaries))
	copy(list, summaries)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[NormalizeUserID(userID)] = list
	return nil
}

// Get returns a snapshot of the user's conversation list. Unknown users
// get an empty list.
func (c *ConversationIndex) Get(userID string) []Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.lists[NormalizeUserID(userID)]
	out := make([]Summary, len(list))
	copy(out, list)
	return out
}

// NormalizeUserID trims the id and maps empty to "anonymous", so an absent
// user header and an explicit blank behave the same everywhere.
func NormalizeUserID(userID string) string {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "anonymous"
	}
	return trimmed
}
