package infra

import (
	"context"
	"testing"
	"time"
)

func TestChanPool_BlocksWhenFullAndReleasesOnce(t *testing.T) {
	p := NewChanPool(1)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	if p.InFlight() != 1 || p.Capacity() != 1 {
		t.Fatalf("unexpected pool state: inflight=%d cap=%d", p.InFlight(), p.Capacity())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected acquire to fail while pool is full")
	}

	release()
	release()
	if p.InFlight() != 0 {
		t.Fatalf("expected 0 in flight after release, got %d", p.InFlight())
	}
}

func TestChanPool_CanceledContextStillGetsFreeSlot(t *testing.T) {
	p := NewChanPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	release, ok := p.Acquire(ctx)
	if !ok {
		t.Fatalf("expected free slot to be taken even with canceled ctx")
	}
	release()
}
