package bubblekit

// Record is the export form of a bubble, the shape stored by history
// backends and returned to clients on reload.
type Record struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Type      string                 `json:"type"`
	Config    map[string]interface{} `json:"config,omitempty"`
	CreatedAt string                 `json:"createdAt,omitempty"`
}

// OpenAIMessage is the chat-completion shape of a record, for handlers
// that forward history to an LLM API.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAI converts the record to a chat-completion message. A missing role
// defaults to "assistant".
func (r Record) OpenAI() OpenAIMessage {
	role := r.Role
	if role == "" {
		role = "assistant"
	}
	return OpenAIMessage{Role: role, Content: r.Content}
}

// ToOpenAI converts a history slice to chat-completion messages.
func ToOpenAI(records []Record) []OpenAIMessage {
	messages := make([]OpenAIMessage, 0, len(records))
	for _, r := range records {
		messages = append(messages, r.OpenAI())
	}
	return messages
}
