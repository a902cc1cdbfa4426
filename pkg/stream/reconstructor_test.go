package stream_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/easyops/dashchat-go/pkg/core/errors"
	"github.com/easyops/dashchat-go/pkg/core/message"
	"github.com/easyops/dashchat-go/pkg/stream"
)

func TestReconstructor_ChunkBoundaryInsideEvent(t *testing.T) {
	r := stream.NewReconstructor()

	// The event is split in the middle of a JSON key
	r.Feed([]byte(`data: {"typ`))
	r.Feed([]byte("e\":\"content\",\"content\":\"hi\"}\n\n"))
	r.Feed([]byte("data: {\"type\":\"complete\",\"messages\":[]}\n\n"))

	result, err := r.Finish()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.Accumulated() != "hi" {
		t.Fatalf("expected accumulated 'hi', got %q", r.Accumulated())
	}
	if result.Synthesized {
		t.Fatal("expected explicit completion, not synthesis")
	}
}

func TestReconstructor_PartitionIndependence(t *testing.T) {
	wire := "data: {\"type\":\"start\",\"interaction_id\":\"i-1\"}\n\n" +
		"data: {\"type\":\"content\",\"content\":\"Hello \"}\n\n" +
		"data: {\"type\":\"content\",\"content\":\"world\"}\n\n" +
		"data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"Hello world\"}]}\n\n" +
		"data: [DONE]\n\n"

	// Whole stream at once, line by line, byte by byte: identical results
	partitions := [][]string{
		{wire},
		strings.SplitAfter(wire, "\n"),
		strings.Split(wire, ""),
	}

	for i, parts := range partitions {
		r := stream.NewReconstructor()
		for _, part := range parts {
			r.Feed([]byte(part))
		}
		result, err := r.Finish()
		if err != nil {
			t.Fatalf("partition %d: expected no error, got %v", i, err)
		}
		if len(result.Messages) != 1 || result.Messages[0].Content != "Hello world" {
			t.Fatalf("partition %d: unexpected messages %v", i, result.Messages)
		}
		if result.InteractionID != "i-1" {
			t.Fatalf("partition %d: expected interaction id i-1, got %q", i, result.InteractionID)
		}
	}
}

func TestReconstructor_DeltaHandler(t *testing.T) {
	var deltas []string
	r := stream.NewReconstructor(stream.WithDeltaHandler(func(delta string) {
		deltas = append(deltas, delta)
	}))

	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"a\"}\n"))
	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"b\"}\n"))

	if len(deltas) != 2 || deltas[0] != "a" || deltas[1] != "b" {
		t.Fatalf("expected deltas [a b], got %v", deltas)
	}
}

func TestReconstructor_CompleteIsAuthoritative(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"partial text\"}\n"))
	r.Feed([]byte("data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"final text\"}]}\n"))

	result, err := r.Finish()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0].Content != "final text" {
		t.Fatalf("expected complete event messages to win, got %v", result.Messages)
	}
}

func TestReconstructor_ErrorTerminal(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"some progress\"}\n"))
	r.Feed([]byte("data: {\"type\":\"error\",\"error\":\"backend exploded\"}\n"))

	_, err := r.Finish()
	if err == nil {
		t.Fatal("expected error result")
	}
	if !strings.Contains(err.Error(), "backend exploded") {
		t.Fatalf("expected error reason, got %v", err)
	}
	// The error outranks accumulated content: no synthesized completion
	if r.State() != stream.StateFailed {
		t.Fatalf("expected failed state, got %v", r.State())
	}
}

func TestReconstructor_InputAfterTerminalIgnored(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"done\"}]}\n"))
	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"late arrival\"}\n"))
	r.Feed([]byte("data: {\"type\":\"error\",\"error\":\"late failure\"}\n"))

	result, err := r.Finish()
	if err != nil {
		t.Fatalf("expected first terminal to stand, got %v", err)
	}
	if result.Messages[0].Content != "done" {
		t.Fatalf("expected original result, got %v", result.Messages)
	}
	if r.Accumulated() != "" {
		t.Fatalf("expected post-terminal content to be dropped, got %q", r.Accumulated())
	}
}

func TestReconstructor_SynthesizesFromAccumulated(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"partial \"}\n"))
	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"answer\"}\n"))
	// Connection drops before any terminal event

	result, err := r.Finish()
	if err != nil {
		t.Fatalf("expected synthesized result, got %v", err)
	}
	if !result.Synthesized {
		t.Fatal("expected result to be marked synthesized")
	}
	if len(result.Messages) != 1 || result.Messages[0].Content != "partial answer" {
		t.Fatalf("expected synthesized assistant message, got %v", result.Messages)
	}
	if result.Messages[0].Role != message.RoleAssistant {
		t.Fatalf("expected assistant role, got %s", result.Messages[0].Role)
	}

	// Finish is idempotent
	again, err := r.Finish()
	if err != nil || again != result {
		t.Fatal("expected repeated Finish to return the same result")
	}
}

func TestReconstructor_EmptyStreamYieldsNoResult(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: {\"type\":\"start\"}\n"))

	_, err := r.Finish()
	if err != errors.ErrStreamClosed {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
}

func TestReconstructor_DoneSentinelIsNoop(t *testing.T) {
	r := stream.NewReconstructor()

	r.Feed([]byte("data: [DONE]\n"))
	if r.Done() {
		t.Fatal("expected sentinel not to terminate the stream")
	}

	r.Feed([]byte("data: {\"type\":\"content\",\"content\":\"after sentinel\"}\n"))
	if r.Accumulated() != "after sentinel" {
		t.Fatalf("expected content after sentinel, got %q", r.Accumulated())
	}
}

func TestReconstructor_MalformedLineDegradesToText(t *testing.T) {
	var raw []stream.Event
	r := stream.NewReconstructor(stream.WithEventHandler(func(ev stream.Event) {
		if ev.Raw {
			raw = append(raw, ev)
		}
	}))

	r.Feed([]byte("data: {not json at all\n"))
	r.Feed([]byte("plain text line\n"))

	if len(raw) != 2 {
		t.Fatalf("expected 2 raw events, got %d", len(raw))
	}
	if r.Accumulated() != "{not json at all"+"plain text line" {
		t.Fatalf("unexpected accumulated %q", r.Accumulated())
	}
}

func TestReconstructor_TrailingLineWithoutNewline(t *testing.T) {
	r := stream.NewReconstructor()

	// Final complete event arrives without a trailing newline
	r.Feed([]byte("data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"tail\"}]}"))

	result, err := r.Finish()
	if err != nil {
		t.Fatalf("expected Finish to flush trailing line, got %v", err)
	}
	if result.Messages[0].Content != "tail" {
		t.Fatalf("expected trailing event to be processed, got %v", result.Messages)
	}
}

func TestReconstructor_Run(t *testing.T) {
	wire := "data: {\"type\":\"content\",\"content\":\"streamed\"}\n\n" +
		"data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"streamed\"}]}\n\n" +
		"data: [DONE]\n\n"

	r := stream.NewReconstructor()
	result, err := r.Run(context.Background(), strings.NewReader(wire))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Messages[0].Content != "streamed" {
		t.Fatalf("unexpected result %v", result.Messages)
	}
}

func TestReconstructor_RunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := stream.NewReconstructor()
	_, err := r.Run(ctx, strings.NewReader("data: {\"type\":\"content\",\"content\":\"x\"}\n"))
	if err != errors.ErrAborted {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestReconstructor_RunAbortMidStream(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel while Run is blocked reading, then close the pipe the way
	// the transport does when a request is aborted.
	go func() {
		pw.Write([]byte("data: {\"type\":\"content\",\"content\":\"partial\"}\n"))
		cancel()
		pw.Close()
	}()

	r := stream.NewReconstructor()
	result, err := r.Run(ctx, pr)
	if err != errors.ErrAborted {
		t.Fatalf("expected ErrAborted, got %v (result %+v)", err, result)
	}
	if result != nil {
		t.Fatalf("expected no synthesized result for aborted stream, got %+v", result)
	}
}

func TestReconstructor_RunCancelAfterTerminal(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancellation arriving after an explicit terminal must not retract it
	go func() {
		pw.Write([]byte("data: {\"type\":\"complete\",\"messages\":[{\"role\":\"assistant\",\"content\":\"done\"}]}\n"))
		cancel()
		pw.Close()
	}()

	r := stream.NewReconstructor()
	result, err := r.Run(ctx, pr)
	if err != nil {
		t.Fatalf("expected delivered terminal to stand, got %v", err)
	}
	if result.Messages[0].Content != "done" {
		t.Fatalf("unexpected result %v", result.Messages)
	}
}

func TestReconstructor_RunReadError(t *testing.T) {
	// Reader fails mid-stream after delivering partial content
	reader := io.MultiReader(
		strings.NewReader("data: {\"type\":\"content\",\"content\":\"partial\"}\n"),
		failingReader{},
	)

	r := stream.NewReconstructor()
	result, err := r.Run(context.Background(), reader)
	if err != nil {
		t.Fatalf("expected synthesized result from partial content, got %v", err)
	}
	if !result.Synthesized || result.Messages[0].Content != "partial" {
		t.Fatalf("unexpected result %v", result)
	}
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
