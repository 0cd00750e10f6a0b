package bubblekit

import "context"

// Context is the handle a handler uses to talk to its conversation. It is
// created per handler invocation and carries the session, the attached
// sink (nil on the history path), and the request identity. There is no
// process-global current conversation; everything flows through this
// handle, so concurrent streams never see each other's state.
type Context struct {
	ctx     context.Context
	runtime *Runtime
	session *Session
	sink    *StreamSink

	conversationID string
	userID         string
	message        string
}

// Context returns the request context. It is cancelled when the client
// disconnects or the stream is torn down.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// ConversationID returns the conversation this context is bound to.
func (c *Context) ConversationID() string { return c.conversationID }

// UserID returns the normalized requesting user id.
func (c *Context) UserID() string { return c.userID }

// Message returns the user message that triggered this handler, or "" on
// the new-chat and history paths.
func (c *Context) Message() string { return c.message }

// Send materializes a template into the conversation. The bubble's full
// initial config goes out as one config frame; prefilled content follows
// as a set frame. Without an attached stream the bubble is recorded
// already-done and nothing is emitted.
func (c *Context) Send(t *Template) (*Bubble, error) {
	if c.session == nil {
		return nil, ErrNoActiveContext
	}
	if t.opts.err != nil {
		return nil, t.opts.err
	}

	id := t.opts.id
	if id == "" {
		id = NewID()
	}
	role := t.opts.role
	if role == "" {
		role = "assistant"
	}
	typ := t.opts.typ
	if typ == "" {
		typ = "text"
	}

	state := &bubbleState{
		id:        id,
		role:      role,
		typ:       typ,
		createdAt: timestamp(),
	}
	if t.prefilled {
		state.content = t.content
	}

	patch := map[string]interface{}{"role": role, "type": typ}
	for k, v := range t.opts.patch() {
		patch[k] = v
	}

	if err := c.session.send(state, patch, t.prefilled); err != nil {
		return nil, err
	}
	return &Bubble{session: c.session, state: state}, nil
}

// Bubble builds and sends a bubble in one step.
func (c *Context) Bubble(opts ...Option) (*Bubble, error) {
	return c.Send(NewBubble(opts...))
}

// AccessBubble returns a handle on an existing bubble by id. Requires an
// attached stream; cleared or unknown ids return ErrBubbleNotFound.
func (c *Context) AccessBubble(id string) (*Bubble, error) {
	if c.session == nil {
		return nil, ErrNoActiveContext
	}
	if c.sink == nil {
		return nil, ErrNoActiveStream
	}
	state, ok := c.session.bubbleByID(id)
	if !ok {
		return nil, ErrBubbleNotFound
	}
	return &Bubble{session: c.session, state: state}, nil
}

// ClearConversation drops every bubble in the conversation. An attached
// stream stays attached; handles held before the clear become silent
// no-ops.
func (c *Context) ClearConversation() error {
	if c.session == nil {
		return ErrNoActiveContext
	}
	c.session.Clear()
	return nil
}

// Load replaces the session state with persisted records, installed as
// already-done bubbles. Returns the normalized records.
func (c *Context) Load(records []Record) ([]Record, error) {
	if c.session == nil {
		return nil, ErrNoActiveContext
	}
	c.session.Clear()
	normalized := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			r.ID = NewID()
		}
		if r.Role == "" {
			r.Role = "assistant"
		}
		if r.Type == "" {
			r.Type = "text"
		}
		c.session.install(&bubbleState{
			id:        r.ID,
			role:      r.Role,
			typ:       r.Type,
			content:   r.Content,
			config:    cloneConfig(r.Config),
			createdAt: r.CreatedAt,
			done:      true,
		})
		normalized = append(normalized, r)
	}
	return normalized, nil
}

// Progress emits an explicit progress frame. Unlike the runtime's own
// processing announcement, it counts as handler activity for the stream
// clocks.
func (c *Context) Progress(stage string) error {
	if c.session == nil {
		return ErrNoActiveContext
	}
	if c.sink == nil {
		return ErrNoActiveStream
	}
	c.sink.Emit(progressFrame(stage))
	return nil
}

// SetConversationList publishes the sidebar list for the requesting user.
func (c *Context) SetConversationList(summaries []Summary) error {
	if c.runtime == nil {
		return ErrNoActiveContext
	}
	return c.runtime.SetConversationList(c.userID, summaries)
}
