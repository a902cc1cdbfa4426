package contextual_test

import (
	"testing"

	"github.com/easyops/dashchat-go/pkg/contextual"
	"github.com/easyops/dashchat-go/pkg/snapshot"
)

// panicScorer panics while scoring to exercise selector degradation.
type panicScorer struct {
	failIDs map[string]bool
}

func (s *panicScorer) Score(element *snapshot.ContentElement, query string) float64 {
	if s.failIDs == nil || s.failIDs[element.ID] {
		panic("corrupt element data")
	}
	return float64(len(element.Title))
}

func makeElements(ids ...string) []snapshot.ContentElement {
	elements := make([]snapshot.ContentElement, 0, len(ids))
	for _, id := range ids {
		elements = append(elements, snapshot.ContentElement{
			ID:   id,
			Type: snapshot.ElementText,
		})
	}
	return elements
}

func TestBudgetSelector_EmptyInput(t *testing.T) {
	selector := contextual.NewBudgetSelector(nil)

	if got := selector.Select(nil, "query", 10); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := selector.Select(makeElements("a"), "query", 0); got != nil {
		t.Fatalf("expected nil for zero budget, got %v", got)
	}
}

func TestBudgetSelector_RespectsMaxElements(t *testing.T) {
	selector := contextual.NewBudgetSelector(nil)
	elements := makeElements("a", "b", "c", "d", "e")

	got := selector.Select(elements, "", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
}

func TestBudgetSelector_DescendingOrder(t *testing.T) {
	scorer := contextual.NewContentScorer(nil)
	selector := contextual.NewBudgetSelector(scorer)

	elements := []snapshot.ContentElement{
		{ID: "nav", Type: snapshot.ElementNavigation, Title: "Sidebar"},
		{ID: "chart", Type: snapshot.ElementVisualization, Title: "Revenue Trend"},
		{ID: "table", Type: snapshot.ElementDataTable, Title: "Orders"},
	}

	got := selector.Select(elements, "", 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	if got[0].ID != "chart" {
		t.Fatalf("expected chart first, got %s", got[0].ID)
	}
	if got[2].ID != "nav" {
		t.Fatalf("expected nav last, got %s", got[2].ID)
	}
}

func TestBudgetSelector_StableTieBreak(t *testing.T) {
	selector := contextual.NewBudgetSelector(nil)

	// Identical elements score identically; order must match the snapshot
	elements := makeElements("first", "second", "third")

	got := selector.Select(elements, "", 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].ID != want {
			t.Fatalf("expected original order at %d, got %s", i, got[i].ID)
		}
	}
}

func TestBudgetSelector_SkipsFailingElement(t *testing.T) {
	scorer := &panicScorer{failIDs: map[string]bool{"bad": true}}
	selector := contextual.NewBudgetSelector(scorer)

	elements := []snapshot.ContentElement{
		{ID: "bad", Type: snapshot.ElementText, Title: "short"},
		{ID: "good", Type: snapshot.ElementText, Title: "a much longer title"},
	}

	got := selector.Select(elements, "", 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 element, got %d", len(got))
	}
	if got[0].ID != "good" {
		t.Fatalf("expected failing element to be skipped, got %s", got[0].ID)
	}
}

func TestBudgetSelector_AllFailedFallsBackToOriginalOrder(t *testing.T) {
	selector := contextual.NewBudgetSelector(&panicScorer{})
	elements := makeElements("a", "b", "c", "d")

	got := selector.Select(elements, "", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected first elements in original order, got %s, %s", got[0].ID, got[1].ID)
	}
}
