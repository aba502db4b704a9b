package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"content-gateway/clock"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestMonitor_NearestRankPercentiles(t *testing.T) {
	m := New()
	for i := 1; i <= 100; i++ {
		m.Record("op", ms(i*10))
	}

	s, ok := m.Metrics("op")
	require.True(t, ok)
	assert.Equal(t, 100, s.Count)
	assert.Equal(t, ms(10), s.Min)
	assert.Equal(t, ms(1000), s.Max)
	assert.Equal(t, ms(505), s.Avg)
	// sorted[floor(100*p)]
	assert.Equal(t, ms(510), s.P50)
	assert.Equal(t, ms(960), s.P95)
	assert.Equal(t, ms(1000), s.P99)
}

func TestMonitor_DropsOldestSample(t *testing.T) {
	m := New()
	for i := 1; i <= 100; i++ {
		m.Record("op", ms(i*10))
	}
	m.Record("op", ms(1010))

	s, ok := m.Metrics("op")
	require.True(t, ok)
	assert.Equal(t, 100, s.Count)
	assert.Equal(t, ms(20), s.Min, "10ms was the oldest sample and must be gone")
	assert.Equal(t, ms(1010), s.Max)
}

func TestMonitor_UnknownOperation(t *testing.T) {
	m := New()
	_, ok := m.Metrics("nope")
	assert.False(t, ok)
	assert.Empty(t, m.All())
}

func TestMonitor_SmallSeriesClampsIndex(t *testing.T) {
	m := New()
	m.Record("op", ms(7))

	s, ok := m.Metrics("op")
	require.True(t, ok)
	assert.Equal(t, ms(7), s.P50)
	assert.Equal(t, ms(7), s.P99)
}

func TestMonitor_StartTimerUsesClock(t *testing.T) {
	fc := clock.NewFake(time.Unix(0, 0))
	m := New(WithClock(fc))

	stop := m.StartTimer("op")
	fc.Advance(250 * time.Millisecond)
	d := stop()

	assert.Equal(t, 250*time.Millisecond, d)
	s, _ := m.Metrics("op")
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, d, s.Max)
}

func TestMonitor_CustomCapacity(t *testing.T) {
	m := New(WithCapacity(3))
	for i := 1; i <= 5; i++ {
		m.Record("op", ms(i))
	}
	s, _ := m.Metrics("op")
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, ms(3), s.Min)
}

func TestMonitor_ConcurrentRecordAndRead(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				m.Record("op", ms(j))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Metrics("op")
				m.All()
			}
		}()
	}
	wg.Wait()

	s, ok := m.Metrics("op")
	require.True(t, ok)
	assert.Equal(t, DefaultCapacity, s.Count)
}

func TestTrack_RecordsOnFailure(t *testing.T) {
	m := New()
	boom := errors.New("boom")

	err := Track(context.Background(), m, "fails", func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)

	s, ok := m.Metrics("fails")
	require.True(t, ok)
	assert.Equal(t, 1, s.Count)
}

func TestTimed_KeepsSignature(t *testing.T) {
	m := New()
	double := Timed(m, "double", func(_ context.Context, n int) (int, error) { return n * 2, nil })

	got, err := double(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Contains(t, m.Operations(), "double")
}

func TestCollector_ExportsOneSummaryPerOperation(t *testing.T) {
	m := New()
	m.Record("a", ms(1))
	m.Record("b", ms(2))

	assert.Equal(t, 2, testutil.CollectAndCount(NewCollector(m, "gateway")))
}
