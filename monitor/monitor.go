// Package monitor registra latência por operação numa janela das últimas N amostras
// e calcula count/avg/min/max/p50/p95/p99 sob demanda.
package monitor

import (
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"content-gateway/clock"
)

// DefaultCapacity é quantas amostras cada operação guarda.
const DefaultCapacity = 100

// Snapshot é calculado a partir de uma cópia ordenada das amostras.
type Snapshot struct {
	Count int           `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Sum   time.Duration `json:"sum"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// series é um ring buffer: cheio, a próxima amostra sobrescreve a mais antiga.
type series struct {
	mu   sync.Mutex
	buf  []time.Duration
	next int
}

func (s *series) add(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) < cap(s.buf) {
		s.buf = append(s.buf, d)
		return
	}
	s.buf[s.next] = d
	s.next = (s.next + 1) % len(s.buf)
}

// sorted copia e ordena sob o mesmo lock de add.
func (s *series) sorted() []time.Duration {
	s.mu.Lock()
	out := slices.Clone(s.buf)
	s.mu.Unlock()
	slices.Sort(out)
	return out
}

type Monitor struct {
	mu       sync.RWMutex
	series   map[string]*series
	clock    clock.Clock
	capacity int
}

type Option func(*Monitor)

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func WithCapacity(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.capacity = n
		}
	}
}

func New(opts ...Option) *Monitor {
	m := &Monitor{
		series:   make(map[string]*series),
		clock:    clock.Real(),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartTimer retorna uma função que, ao ser chamada, registra o tempo decorrido
// em op e devolve a duração.
func (m *Monitor) StartTimer(op string) func() time.Duration {
	start := m.clock.Now()
	return func() time.Duration {
		d := m.clock.Now().Sub(start)
		m.Record(op, d)
		return d
	}
}

func (m *Monitor) Record(op string, d time.Duration) {
	m.seriesFor(op).add(d)
}

func (m *Monitor) seriesFor(op string) *series {
	m.mu.RLock()
	s, ok := m.series[op]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.series[op]; !ok {
		s = &series{buf: make([]time.Duration, 0, m.capacity)}
		m.series[op] = s
	}
	return s
}

// Metrics retorna false quando op não tem amostras.
func (m *Monitor) Metrics(op string) (Snapshot, bool) {
	m.mu.RLock()
	s, ok := m.series[op]
	m.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return summarize(s.sorted())
}

// All retorna o snapshot de todas as operações com amostras.
func (m *Monitor) All() map[string]Snapshot {
	out := make(map[string]Snapshot)
	for _, op := range m.Operations() {
		if snap, ok := m.Metrics(op); ok {
			out[op] = snap
		}
	}
	return out
}

func (m *Monitor) Operations() []string {
	m.mu.RLock()
	ops := make([]string, 0, len(m.series))
	for op := range m.series {
		ops = append(ops, op)
	}
	m.mu.RUnlock()
	sort.Strings(ops)
	return ops
}

func summarize(sorted []time.Duration) (Snapshot, bool) {
	n := len(sorted)
	if n == 0 {
		return Snapshot{}, false
	}

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	return Snapshot{
		Count: n,
		Avg:   sum / time.Duration(n),
		Min:   sorted[0],
		Max:   sorted[n-1],
		Sum:   sum,
		P50:   percentile(sorted, 0.50),
		P95:   percentile(sorted, 0.95),
		P99:   percentile(sorted, 0.99),
	}, true
}

// percentile usa nearest-rank: índice floor(n*p), limitado a [0, n-1].
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Floor(float64(len(sorted)) * p))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
