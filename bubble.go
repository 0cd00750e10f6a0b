package bubblekit

// bubbleState is the session-owned record behind a bubble handle. All
// access goes through the session mutex.
type bubbleState struct {
	id        string
	role      string
	typ       string
	content   string
	config    map[string]interface{}
	createdAt string
	done      bool
}

func (s *bubbleState) record() Record {
	return Record{
		ID:        s.id,
		Role:      s.role,
		Content:   s.content,
		Type:      s.typ,
		Config:    cloneConfig(s.config),
		CreatedAt: s.createdAt,
	}
}

// Template is a bubble blueprint. It is pure: building one has no session
// or wire effect until it is passed to Context.Send, and the same template
// can be sent any number of times (each send creates a fresh bubble,
// unless the template pins an id).
type Template struct {
	opts      templateOptions
	content   string
	prefilled bool
}

// NewBubble builds a bubble template from flat options.
func NewBubble(opts ...Option) *Template {
	return &Template{opts: applyOptions(opts)}
}

// Set prefills the template content. The prefilled text is delivered as a
// set frame immediately after the bubble's initial config frame.
func (t *Template) Set(content string) *Template {
	t.content = content
	t.prefilled = true
	return t
}

// Bubble is a live handle on a sent bubble. Handles stay valid across the
// bubble's lifecycle; after the conversation is cleared a stale handle
// turns into a silent no-op.
type Bubble struct {
	session *Session
	state   *bubbleState
}

// ID returns the bubble id.
func (b *Bubble) ID() string { return b.state.id }

// Role returns the current role.
func (b *Bubble) Role() string {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	return b.state.role
}

// Type returns the current bubble type.
func (b *Bubble) Type() string {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	return b.state.typ
}

// Content returns the current content.
func (b *Bubble) Content() string {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	return b.state.content
}

// ConfigData returns a copy of the accumulated config.
func (b *Bubble) ConfigData() map[string]interface{} {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	return cloneConfig(b.state.config)
}

// IsDone reports whether the bubble has been finalized.
func (b *Bubble) IsDone() bool {
	b.session.mu.Lock()
	defer b.session.mu.Unlock()
	return b.state.done
}

// Set replaces the bubble content and emits a set frame.
func (b *Bubble) Set(content string) *Bubble {
	b.session.setContent(b.state, content)
	return b
}

// Stream appends a chunk to the bubble content and emits a delta frame.
func (b *Bubble) Stream(chunk string) *Bubble {
	b.session.streamContent(b.state, chunk)
	return b
}

// Config applies a config patch built from the given options and emits a
// config frame when the patch is non-empty.
func (b *Bubble) Config(opts ...Option) error {
	o := applyOptions(opts)
	if o.err != nil {
		return o.err
	}
	return b.session.applyConfig(b.state, o.patch())
}

// Done finalizes the bubble. The first call emits a per-bubble done frame;
// later calls are no-ops. Mutations after Done still update session state
// but emit nothing.
func (b *Bubble) Done() {
	b.session.markDone(b.state)
}
