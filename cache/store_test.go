package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"content-gateway/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s := New(WithClock(fc), WithSweepInterval(0))
	t.Cleanup(s.Stop)
	return s, fc
}

func TestStore_GetBeforeAndAfterTTL(t *testing.T) {
	s, fc := newTestStore(t)

	s.Set("k", "v", time.Second)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	// exatamente no limite ainda vale (now <= expiresAt)
	fc.Advance(time.Second)
	_, ok = s.Get("k")
	assert.True(t, ok)

	fc.Advance(time.Nanosecond)
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Stats().Size, "lazy expiry should remove the entry")
}

func TestStore_NonPositiveTTLIsImmediatelyExpired(t *testing.T) {
	s, _ := newTestStore(t)

	for _, ttl := range []time.Duration{0, -time.Second} {
		key := fmt.Sprintf("k%d", ttl)
		s.Set(key, 1, ttl)
		_, ok := s.Get(key)
		assert.False(t, ok, "ttl=%s", ttl)
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	s, fc := newTestStore(t)

	s.Set("k", "old", time.Second)
	s.Set("k", "new", time.Minute)
	fc.Advance(2 * time.Second)

	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", 1, time.Minute)
	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))
	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)
	s.Clear()

	assert.Equal(t, 0, s.Stats().Size)
}

func TestStore_SweepRemovesOnlyExpired(t *testing.T) {
	s, fc := newTestStore(t)

	s.Set("short", 1, time.Second)
	s.Set("long", 2, time.Hour)
	s.Set("dead", 3, 0)

	fc.Advance(2 * time.Second)
	removed := s.Sweep()

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"long"}, s.Stats().Keys)
	assert.Equal(t, 0, s.Sweep())
}

func TestStore_StatsDoesNotEvict(t *testing.T) {
	s, fc := newTestStore(t)

	s.Set("k", 1, time.Second)
	fc.Advance(time.Minute)

	st := s.Stats()
	assert.Equal(t, 1, st.Size)
	assert.Equal(t, []string{"k"}, st.Keys)
	// segunda leitura continua vendo a entrada vencida
	assert.Equal(t, 1, s.Stats().Size)
}

func TestStore_StatsCountsHitsAndMisses(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("k", 1, time.Minute)
	s.Get("k")
	s.Get("k")
	s.Get("missing")

	st := s.Stats()
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestStore_DeletePattern(t *testing.T) {
	s, _ := newTestStore(t)

	s.Set("memo:posts:1", 1, time.Minute)
	s.Set("memo:posts:2", 2, time.Minute)
	s.Set("memo:comments:1", 3, time.Minute)

	n, err := s.DeletePattern(`^memo:posts:`)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"memo:comments:1"}, s.Stats().Keys)

	_, err = s.DeletePattern(`(`)
	assert.Error(t, err)
}

func TestStore_UseAfterStopPanics(t *testing.T) {
	s := New(WithSweepInterval(0))
	s.Stop()
	s.Stop()

	assert.PanicsWithValue(t, ErrClosed, func() { s.Set("k", 1, time.Second) })
	assert.PanicsWithValue(t, ErrClosed, func() { s.Get("k") })
}

func TestStore_BackgroundSweep(t *testing.T) {
	s := New(WithSweepInterval(5 * time.Millisecond))
	s.Start(context.Background())
	defer s.Stop()

	s.Set("ttl", 1, 10*time.Millisecond)

	// não chamamos Get: quem remove é o loop de varredura
	require.Eventually(t, func() bool {
		return s.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s, fc := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%10)
				s.Set(key, id, time.Duration(j%3)*time.Second)
				s.Get(key)
				if j%50 == 0 {
					fc.Advance(time.Second)
					s.Sweep()
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 10)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "posts:1:true", Key("posts", 1, true))
	assert.Equal(t, "posts", Key("posts"))
}
