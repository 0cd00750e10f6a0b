package bubblekit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/bubblekit/bubblekit/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: slog.LevelError, Format: "text"})
}

func newTestSession(t *testing.T) (*Session, *StreamSink) {
	t.Helper()
	log := testLogger()
	session := NewSession("conv-test", log)
	sink := NewStreamSink("stream-test", 128, log, nil)
	if err := session.AttachStream(sink); err != nil {
		t.Fatalf("attach stream: %v", err)
	}
	return session, sink
}

func newTestContext(t *testing.T) (*Context, *StreamSink) {
	t.Helper()
	session, sink := newTestSession(t)
	return &Context{
		ctx:            context.Background(),
		session:        session,
		sink:           sink,
		conversationID: session.ConversationID(),
		userID:         "tester",
	}, sink
}

// collectFrames drains whatever the sink has buffered without running a
// writer.
func collectFrames(s *StreamSink) []Frame {
	var frames []Frame
	for {
		select {
		case f := <-s.ch:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func frameTypes(frames []Frame) []string {
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		t, _ := f["type"].(string)
		types = append(types, t)
	}
	return types
}

func TestSendEmitsConfigThenSet(t *testing.T) {
	c, sink := newTestContext(t)

	bubble, err := c.Send(NewBubble().Set("hello"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	frames := collectFrames(sink)
	if got := frameTypes(frames); len(got) != 2 || got[0] != FrameConfig || got[1] != FrameSet {
		t.Fatalf("unexpected frames: %v", got)
	}

	patch := frames[0]["patch"].(map[string]interface{})
	if patch["role"] != "assistant" || patch["type"] != "text" {
		t.Errorf("initial patch missing defaults: %v", patch)
	}
	if frames[0]["bubbleId"] != bubble.ID() {
		t.Errorf("config frame for wrong bubble: %v", frames[0])
	}
	if frames[1]["content"] != "hello" {
		t.Errorf("set frame content = %v", frames[1]["content"])
	}
	for i, f := range frames {
		if f["streamId"] != "stream-test" {
			t.Errorf("frame %d missing streamId: %v", i, f)
		}
		if f["seq"] != uint64(i) {
			t.Errorf("frame %d seq = %v", i, f["seq"])
		}
	}
}

func TestTemplateReusable(t *testing.T) {
	c, sink := newTestContext(t)
	tmpl := NewBubble(WithName("worker"))

	first, err := c.Send(tmpl)
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	second, err := c.Send(tmpl)
	if err != nil {
		t.Fatalf("second send: %v", err)
	}

	if first.ID() == second.ID() {
		t.Fatalf("template sends must mint distinct bubbles, both got %q", first.ID())
	}
	frames := collectFrames(sink)
	if len(frames) != 2 {
		t.Fatalf("expected one config frame per send, got %v", frameTypes(frames))
	}
}

func TestDuplicateBubbleID(t *testing.T) {
	c, _ := newTestContext(t)

	if _, err := c.Bubble(WithID("fixed")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := c.Bubble(WithID("fixed")); !errors.Is(err, ErrDuplicateBubble) {
		t.Fatalf("expected ErrDuplicateBubble, got %v", err)
	}
}

func TestColorMergeAccumulates(t *testing.T) {
	c, sink := newTestContext(t)
	bubble, err := c.Bubble(WithBubbleBgColor("#111111"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	collectFrames(sink)

	if err := bubble.Config(WithBubbleTextColor("#222222"), WithHeaderBgColor("#333333")); err != nil {
		t.Fatalf("config: %v", err)
	}

	colors := bubble.ConfigData()["colors"].(map[string]interface{})
	bubbleColors := colors["bubble"].(map[string]interface{})
	if bubbleColors["bg"] != "#111111" || bubbleColors["text"] != "#222222" {
		t.Errorf("bubble colors merged wrong: %v", bubbleColors)
	}
	headerColors := colors["header"].(map[string]interface{})
	if headerColors["bg"] != "#333333" {
		t.Errorf("header colors merged wrong: %v", headerColors)
	}

	// The emitted patch carries only the incoming values.
	frames := collectFrames(sink)
	if len(frames) != 1 {
		t.Fatalf("expected one config frame, got %v", frameTypes(frames))
	}
	patchColors := frames[0]["patch"].(map[string]interface{})["colors"].(map[string]interface{})
	if _, ok := patchColors["bubble"].(map[string]interface{})["bg"]; ok {
		t.Errorf("patch leaked previously set color: %v", patchColors)
	}
}

func TestColorAutoOmitted(t *testing.T) {
	c, sink := newTestContext(t)
	bubble, err := c.Bubble()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	collectFrames(sink)

	if err := bubble.Config(WithBubbleBgColor(ColorAuto)); err != nil {
		t.Fatalf("config: %v", err)
	}
	if frames := collectFrames(sink); len(frames) != 0 {
		t.Fatalf("auto color must not emit a frame, got %v", frameTypes(frames))
	}
	if _, ok := bubble.ConfigData()["colors"]; ok {
		t.Errorf("auto color must leave config unchanged: %v", bubble.ConfigData())
	}
}

func TestCollapsibleImpliesCollapsedByDefault(t *testing.T) {
	implied := applyOptions([]Option{WithCollapsible(true)})
	patch := implied.patch()
	if patch["collapsible"] != true || patch["collapsible_by_default"] != true {
		t.Errorf("implied default missing: %v", patch)
	}

	explicit := applyOptions([]Option{WithCollapsible(true), WithCollapsibleByDefault(false)})
	patch = explicit.patch()
	if patch["collapsible_by_default"] != false {
		t.Errorf("explicit default overridden: %v", patch)
	}
}

func TestForbiddenExtraKeys(t *testing.T) {
	for _, key := range []string{"id", "config", "colors"} {
		c, _ := newTestContext(t)
		_, err := c.Bubble(WithExtra(map[string]interface{}{key: "x"}))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("extra key %q: expected ErrInvalidConfig, got %v", key, err)
		}
	}
}

func TestDoneIdempotent(t *testing.T) {
	c, sink := newTestContext(t)
	bubble, err := c.Bubble()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	collectFrames(sink)

	bubble.Done()
	bubble.Done()

	frames := collectFrames(sink)
	if len(frames) != 1 || frames[0]["type"] != FrameDone {
		t.Fatalf("expected exactly one done frame, got %v", frameTypes(frames))
	}
}

func TestMutationAfterDoneEmitsNothing(t *testing.T) {
	c, sink := newTestContext(t)
	bubble, err := c.Bubble()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	bubble.Done()
	collectFrames(sink)

	bubble.Set("late edit")
	bubble.Stream(" more")
	if err := bubble.Config(WithName("late")); err != nil {
		t.Fatalf("config: %v", err)
	}

	if frames := collectFrames(sink); len(frames) != 0 {
		t.Fatalf("post-done mutation leaked frames: %v", frameTypes(frames))
	}
	if bubble.Content() != "late edit more" {
		t.Errorf("post-done state not updated: %q", bubble.Content())
	}
	if bubble.ConfigData()["name"] != "late" {
		t.Errorf("post-done config not updated: %v", bubble.ConfigData())
	}
}

func TestStaleHandleAfterClear(t *testing.T) {
	c, sink := newTestContext(t)
	bubble, err := c.Bubble()
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	bubble.Set("before clear")
	collectFrames(sink)

	if err := c.ClearConversation(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	bubble.Set("after clear").Stream("!")
	bubble.Done()

	if frames := collectFrames(sink); len(frames) != 0 {
		t.Fatalf("stale handle emitted frames: %v", frameTypes(frames))
	}
	if got := bubble.state.content; got != "before clear" {
		t.Errorf("stale handle mutated state: %q", got)
	}
	if _, err := c.AccessBubble(bubble.ID()); !errors.Is(err, ErrBubbleNotFound) {
		t.Errorf("expected ErrBubbleNotFound after clear, got %v", err)
	}
}

func TestSendWithoutStreamFinalizesImmediately(t *testing.T) {
	session := NewSession("conv-offline", testLogger())
	c := &Context{session: session, conversationID: "conv-offline", userID: "tester"}

	bubble, err := c.Send(NewBubble().Set("stored"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !bubble.IsDone() {
		t.Fatalf("bubble sent without a stream must be done immediately")
	}

	records := session.ExportMessages()
	if len(records) != 1 || records[0].Content != "stored" {
		t.Fatalf("unexpected export: %+v", records)
	}
}

func TestSendWithoutContext(t *testing.T) {
	c := &Context{}
	if _, err := c.Send(NewBubble()); !errors.Is(err, ErrNoActiveContext) {
		t.Fatalf("expected ErrNoActiveContext, got %v", err)
	}
}

func TestAccessBubbleRequiresStream(t *testing.T) {
	session := NewSession("conv-hist", testLogger())
	c := &Context{session: session, conversationID: "conv-hist"}
	if _, err := c.AccessBubble("whatever"); !errors.Is(err, ErrNoActiveStream) {
		t.Fatalf("expected ErrNoActiveStream, got %v", err)
	}
}
