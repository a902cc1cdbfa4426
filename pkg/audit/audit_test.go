package audit_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/easyops/dashchat-go/pkg/audit"
)

func newTestRecorder(t *testing.T) *audit.SQLiteRecorder {
	t.Helper()

	recorder, err := audit.NewSQLiteRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("expected recorder, got %v", err)
	}
	t.Cleanup(func() { recorder.Close() })
	return recorder
}

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	recorder := newTestRecorder(t)
	ctx := context.Background()

	err := recorder.Record(ctx, audit.Record{
		ConversationID: "conv-1",
		App:            "analytics",
		Page:           "Sales Overview",
		ElementIDs:     []string{"chart-1", "table-1"},
	})
	if err != nil {
		t.Fatalf("expected record to succeed, got %v", err)
	}

	records, err := recorder.ListByConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.App != "analytics" || rec.Page != "Sales Overview" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.ElementIDs) != 2 || rec.ElementIDs[0] != "chart-1" {
		t.Fatalf("unexpected element ids %v", rec.ElementIDs)
	}
	if rec.AccessedAt.IsZero() {
		t.Fatal("expected access time to be filled in")
	}
}

func TestSQLiteRecorder_ListOrderedByTime(t *testing.T) {
	recorder := newTestRecorder(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, ids := range [][]string{{"a"}, {"b"}, {"c"}} {
		err := recorder.Record(ctx, audit.Record{
			ConversationID: "conv-1",
			ElementIDs:     ids,
			AccessedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("expected record %d to succeed, got %v", i, err)
		}
	}

	records, err := recorder.ListByConversation(ctx, "conv-1")
	if err != nil {
		t.Fatalf("expected list to succeed, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"a", "b", "c"} {
		if records[i].ElementIDs[0] != want {
			t.Fatalf("expected ascending time order, got %v", records)
		}
	}
}

func TestSQLiteRecorder_ListUnknownConversation(t *testing.T) {
	recorder := newTestRecorder(t)

	records, err := recorder.ListByConversation(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestNoopRecorder(t *testing.T) {
	recorder := audit.NewNoopRecorder()

	if err := recorder.Record(context.Background(), audit.Record{ConversationID: "conv-1"}); err != nil {
		t.Fatalf("expected noop record to succeed, got %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Fatalf("expected noop close to succeed, got %v", err)
	}
}
