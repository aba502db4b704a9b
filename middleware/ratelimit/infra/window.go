package infra

import (
	"sync"
	"time"

	"content-gateway/clock"
	"content-gateway/middleware/ratelimit/domain"
)

// WindowStore é um rate limit de janela fixa por chave.
//
// Cada chave tem um contador e um instante de reset. Na primeira requisição (ou quando
// a janela anterior já terminou) nasce uma janela nova com count=1; dentro da janela o
// contador sobe até maxRequests e depois tudo é rejeitado até o reset.
//
// Janela fixa admite até 2×maxRequests num intervalo curto que cruza a fronteira entre
// duas janelas. É uma aproximação aceita, não um bug.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string]*window

	maxRequests int
	window      time.Duration
	clock       clock.Clock
}

type window struct {
	count   int
	resetAt time.Time
}

type WindowOption func(*WindowStore)

func WithWindowClock(c clock.Clock) WindowOption {
	return func(s *WindowStore) { s.clock = c }
}

func NewWindowStore(maxRequests int, windowDur time.Duration, opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		windows:     make(map[string]*window),
		maxRequests: maxRequests,
		window:      windowDur,
		clock:       clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) MaxRequests() int      { return s.maxRequests }
func (s *WindowStore) Window() time.Duration { return s.window }

// Take implementa domain.LimiterStore.
func (s *WindowStore) Take(key domain.Key) domain.Decision {
	now := s.clock.Now()
	k := string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked(now)

	w, ok := s.windows[k]
	if !ok || !now.Before(w.resetAt) {
		// janela nova (não incrementa a antiga)
		w = &window{count: 1, resetAt: now.Add(s.window)}
		s.windows[k] = w
		return s.allowed(w)
	}

	if w.count < s.maxRequests {
		w.count++
		return s.allowed(w)
	}

	return domain.Decision{
		Allowed:    false,
		Limit:      s.maxRequests,
		Remaining:  0,
		ResetAt:    w.resetAt,
		RetryAfter: w.resetAt.Sub(now),
	}
}

func (s *WindowStore) allowed(w *window) domain.Decision {
	return domain.Decision{
		Allowed:   true,
		Limit:     s.maxRequests,
		Remaining: max(s.maxRequests-w.count, 0),
		ResetAt:   w.resetAt,
	}
}

// purgeLocked remove janelas que terminaram há mais de uma janela inteira.
// Roda a cada Take, então a memória fica limitada sem precisar de janitor.
func (s *WindowStore) purgeLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	for k, w := range s.windows {
		if w.resetAt.Before(cutoff) {
			delete(s.windows, k)
		}
	}
}

// Reset descarta a janela de key; a próxima requisição começa do zero.
func (s *WindowStore) Reset(key domain.Key) {
	s.mu.Lock()
	delete(s.windows, string(key))
	s.mu.Unlock()
}

func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
