package contextual_test

import (
	"testing"

	"github.com/easyops/dashchat-go/pkg/contextual"
)

func TestEstimatedCounter_Count(t *testing.T) {
	counter := contextual.NewEstimatedCounter()

	if got := counter.Count(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty text, got %d", got)
	}
	if got := counter.Count("abcdefgh"); got != 2 {
		t.Fatalf("expected 2 tokens for 8 chars, got %d", got)
	}
}

func TestEstimatedCounter_ZeroCharsPerToken(t *testing.T) {
	counter := &contextual.EstimatedCounter{CharsPerToken: 0}

	// Falls back to the default ratio instead of dividing by zero
	if got := counter.Count("abcdefgh"); got != 2 {
		t.Fatalf("expected fallback ratio, got %d", got)
	}
}

func TestDefaultTokenCounter(t *testing.T) {
	counter := contextual.DefaultTokenCounter()
	if counter == nil {
		t.Fatal("expected non-nil counter")
	}
	if counter.Count("hello world") <= 0 {
		t.Fatal("expected positive token count")
	}
}
