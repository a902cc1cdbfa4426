package chat

import (
	"testing"
	"time"

	"github.com/easyops/dashchat-go/pkg/snapshot"
)

func TestAugmentCache_PutAndGet(t *testing.T) {
	c := newAugmentCache(time.Minute)

	c.put("k1", "augmented text", []string{"e1", "e2"})

	value, ids, ok := c.get("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if value != "augmented text" {
		t.Fatalf("unexpected value %q", value)
	}
	if len(ids) != 2 || ids[0] != "e1" {
		t.Fatalf("unexpected element ids %v", ids)
	}
}

func TestAugmentCache_Expiry(t *testing.T) {
	c := newAugmentCache(time.Millisecond)

	c.put("k1", "value", nil)
	time.Sleep(5 * time.Millisecond)

	if _, _, ok := c.get("k1"); ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestAugmentCache_DisabledWhenNoTTL(t *testing.T) {
	c := newAugmentCache(0)

	c.put("k1", "value", nil)
	if _, _, ok := c.get("k1"); ok {
		t.Fatal("expected disabled cache to never hit")
	}
}

func TestCacheKey_DistinguishesInputs(t *testing.T) {
	snapA := &snapshot.Snapshot{Page: snapshot.Page{App: "analytics"}}
	snapB := &snapshot.Snapshot{Page: snapshot.Page{App: "ops"}}

	base := cacheKey("conv-1", "question", snapA)

	if cacheKey("conv-2", "question", snapA) == base {
		t.Fatal("expected different conversation to produce different key")
	}
	if cacheKey("conv-1", "other question", snapA) == base {
		t.Fatal("expected different message to produce different key")
	}
	if cacheKey("conv-1", "question", snapB) == base {
		t.Fatal("expected different snapshot to produce different key")
	}
	if cacheKey("conv-1", "question", snapA) != base {
		t.Fatal("expected identical inputs to produce identical key")
	}
}
