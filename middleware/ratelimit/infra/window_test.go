package infra

import (
	"testing"
	"time"

	"content-gateway/clock"
	"content-gateway/middleware/ratelimit/domain"
)

var t0 = time.Unix(1_700_000_000, 0)

func TestWindowStore_RejectsAfterMaxWithinWindow(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(3, time.Second, WithWindowClock(fc))

	for i := 1; i <= 3; i++ {
		dec := s.Take("ip-1")
		if !dec.Allowed {
			t.Fatalf("request %d: expected allowed", i)
		}
		if dec.Remaining != 3-i {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 3-i, dec.Remaining)
		}
	}

	fc.Advance(200 * time.Millisecond)
	dec := s.Take("ip-1")
	if dec.Allowed {
		t.Fatalf("expected 4th request to be rejected")
	}
	if dec.RetryAfter != 800*time.Millisecond {
		t.Fatalf("expected retryAfter 800ms, got %v", dec.RetryAfter)
	}
	if got := dec.RetryAfterSeconds(); got != 1 {
		t.Fatalf("expected retryAfter rounded up to 1s, got %d", got)
	}
}

func TestWindowStore_FreshWindowAfterReset(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(3, time.Second, WithWindowClock(fc))

	for n := 0; n < 4; n++ {
		s.Take("ip-1")
	}

	// exatamente no resetAt a janela antiga já não vale
	fc.Advance(time.Second)
	dec := s.Take("ip-1")
	if !dec.Allowed {
		t.Fatalf("expected allowed after window reset")
	}
	if dec.Remaining != 2 {
		t.Fatalf("expected count restarted at 1 (remaining 2), got remaining %d", dec.Remaining)
	}
	if want := t0.Add(2 * time.Second); !dec.ResetAt.Equal(want) {
		t.Fatalf("expected resetAt %v, got %v", want, dec.ResetAt)
	}
}

func TestWindowStore_KeysAreIndependent(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(1, time.Minute, WithWindowClock(fc))

	if !s.Take("a").Allowed {
		t.Fatalf("expected a allowed")
	}
	if !s.Take("b").Allowed {
		t.Fatalf("expected b allowed")
	}
	if s.Take("a").Allowed {
		t.Fatalf("expected a rejected")
	}
}

func TestWindowStore_SingleRequestPerMinute(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(1, 60*time.Second, WithWindowClock(fc))

	if !s.Take("client").Allowed {
		t.Fatalf("expected first request allowed")
	}
	dec := s.Take("client")
	if dec.Allowed {
		t.Fatalf("expected second request rejected")
	}
	if got := dec.RetryAfterSeconds(); got != 60 {
		t.Fatalf("expected retryAfter 60, got %d", got)
	}
}

// Janela fixa deixa passar até 2×max em volta da fronteira.
func TestWindowStore_BoundaryBurst(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(2, time.Second, WithWindowClock(fc))

	s.Take("k")
	fc.Advance(900 * time.Millisecond)
	if !s.Take("k").Allowed {
		t.Fatalf("expected second request in first window allowed")
	}
	fc.Advance(100 * time.Millisecond)
	allowed := 0
	for n := 0; n < 2; n++ {
		if s.Take("k").Allowed {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("expected 2 allowed in the new window, got %d", allowed)
	}
}

func TestWindowStore_PurgesStaleKeys(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(5, time.Second, WithWindowClock(fc))

	s.Take("old")
	fc.Advance(1500 * time.Millisecond)
	s.Take("new")
	// resetAt(old)=t0+1s não é < now-window = t0+0.5s
	if s.Len() != 2 {
		t.Fatalf("expected 2 windows, got %d", s.Len())
	}

	fc.Advance(600 * time.Millisecond)
	s.Take("new")
	if s.Len() != 1 {
		t.Fatalf("expected stale window purged, got %d windows", s.Len())
	}
}

func TestWindowStore_Reset(t *testing.T) {
	fc := clock.NewFake(t0)
	s := NewWindowStore(1, time.Minute, WithWindowClock(fc))

	s.Take("k")
	if s.Take("k").Allowed {
		t.Fatalf("expected rejected before reset")
	}
	s.Reset(domain.Key("k"))
	if !s.Take("k").Allowed {
		t.Fatalf("expected allowed after reset")
	}
}
