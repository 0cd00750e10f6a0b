package bubblekit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func decodeWire(t *testing.T, data []byte) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var f map[string]interface{}
		if err := json.Unmarshal(line, &f); err != nil {
			t.Fatalf("malformed frame %q: %v", line, err)
		}
		frames = append(frames, f)
	}
	return frames
}

func TestSinkWritesContiguousSeq(t *testing.T) {
	sink := NewStreamSink("s1", 16, testLogger(), nil)
	var buf bytes.Buffer
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sink.Run(&buf)
	}()

	sink.EmitQuiet(startedFrame("c1"))
	for i := 0; i < 5; i++ {
		sink.Emit(deltaFrame("b1", fmt.Sprintf("chunk-%d", i)))
	}
	sink.Close()
	<-writerDone

	frames := decodeWire(t, buf.Bytes())
	if len(frames) != 6 {
		t.Fatalf("expected 6 frames, got %d", len(frames))
	}
	for i, f := range frames {
		if f["streamId"] != "s1" {
			t.Errorf("frame %d streamId = %v", i, f["streamId"])
		}
		if int(f["seq"].(float64)) != i {
			t.Errorf("frame %d seq = %v", i, f["seq"])
		}
	}
}

func TestSinkDropsAfterClose(t *testing.T) {
	sink := NewStreamSink("s1", 16, testLogger(), nil)
	sink.Close()
	sink.Emit(deltaFrame("b1", "late"))

	if frames := collectFrames(sink); len(frames) != 0 {
		t.Fatalf("closed sink accepted frames: %v", frames)
	}
}

func TestSinkWriteFailure(t *testing.T) {
	sink := NewStreamSink("s1", 16, testLogger(), nil)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sink.Run(failingWriter{})
	}()

	sink.Emit(deltaFrame("b1", "x"))

	select {
	case <-sink.Failed():
	case <-time.After(2 * time.Second):
		t.Fatal("write failure not reported")
	}
	<-writerDone
	if sink.Err() == nil {
		t.Fatal("expected a write error")
	}

	// Later emissions are dropped without blocking.
	sink.Emit(deltaFrame("b1", "y"))
	sink.Close()
}

func TestSinkActivitySignals(t *testing.T) {
	sink := NewStreamSink("s1", 16, testLogger(), nil)

	sink.EmitQuiet(heartbeatFrame())
	select {
	case <-sink.Activity():
		t.Fatal("quiet emission signalled activity")
	default:
	}

	sink.Emit(deltaFrame("b1", "x"))
	select {
	case <-sink.Activity():
	default:
		t.Fatal("emission did not signal activity")
	}
}
