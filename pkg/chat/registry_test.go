package chat

import (
	"context"
	"testing"
)

func TestSessionRegistry_RegisterAndRemove(t *testing.T) {
	r := newSessionRegistry()

	_, cancel := context.WithCancel(context.Background())
	gen := r.register("conv-1", cancel)

	if !r.has("conv-1") {
		t.Fatal("expected registered session")
	}
	if r.active() != 1 {
		t.Fatalf("expected 1 active session, got %d", r.active())
	}

	r.remove("conv-1", gen)
	if r.has("conv-1") {
		t.Fatal("expected session to be removed")
	}
}

func TestSessionRegistry_RegisterCancelsPrevious(t *testing.T) {
	r := newSessionRegistry()

	ctx1, cancel1 := context.WithCancel(context.Background())
	gen1 := r.register("conv-1", cancel1)

	_, cancel2 := context.WithCancel(context.Background())
	gen2 := r.register("conv-1", cancel2)

	select {
	case <-ctx1.Done():
	default:
		t.Fatal("expected first request to be canceled on replacement")
	}
	if gen2 <= gen1 {
		t.Fatalf("expected generation to advance, got %d then %d", gen1, gen2)
	}
	if r.active() != 1 {
		t.Fatalf("expected single in-flight entry, got %d", r.active())
	}
}

func TestSessionRegistry_StaleRemoveIsNoop(t *testing.T) {
	r := newSessionRegistry()

	_, cancel1 := context.WithCancel(context.Background())
	gen1 := r.register("conv-1", cancel1)

	_, cancel2 := context.WithCancel(context.Background())
	r.register("conv-1", cancel2)

	// The replaced request cleans up after itself; the new entry must survive
	r.remove("conv-1", gen1)
	if !r.has("conv-1") {
		t.Fatal("expected stale remove to leave new registration intact")
	}
}

func TestSessionRegistry_Abort(t *testing.T) {
	r := newSessionRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	r.register("conv-1", cancel)

	if !r.abort("conv-1") {
		t.Fatal("expected abort to report an in-flight request")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected abort to cancel the request")
	}
	if r.has("conv-1") {
		t.Fatal("expected aborted session to be removed")
	}

	if r.abort("conv-1") {
		t.Fatal("expected second abort to report nothing in flight")
	}
	if r.abort("unknown") {
		t.Fatal("expected abort of unknown conversation to return false")
	}
}
