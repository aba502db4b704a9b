package cache

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"content-gateway/clock"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultSweepInterval é o intervalo padrão da varredura em background.
const DefaultSweepInterval = 5 * time.Minute

// ErrClosed sinaliza uso do Store depois de Stop. É erro de programação: Get/Set
// entram em panic com ele em vez de retornar.
var ErrClosed = errors.New("cache: store is closed")

type entry struct {
	value     any
	expiresAt time.Time
}

// Stats é um retrato do Store. Size pode incluir entradas vencidas que ainda não
// foram varridas.
type Stats struct {
	Size   int      `json:"size"`
	Keys   []string `json:"keys"`
	Hits   uint64   `json:"hits"`
	Misses uint64   `json:"misses"`
}

type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	closed  bool

	clock      clock.Clock
	sweepEvery time.Duration
	log        *zap.Logger

	hits   atomic.Uint64
	misses atomic.Uint64

	lifeMu  sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithSweepInterval define o período da varredura. d <= 0 desliga o loop
// (a expiração preguiçosa continua valendo).
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) { s.sweepEvery = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func New(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[string]entry),
		clock:      clock.Real(),
		sweepEvery: DefaultSweepInterval,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set grava (ou sobrescreve) key com expiração now+ttl.
// ttl <= 0 é aceito e equivale a "não cachear": a entrada já nasce vencida.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	now := s.clock.Now()
	expiresAt := now.Add(ttl)
	if ttl <= 0 {
		expiresAt = now.Add(ttl - time.Nanosecond)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		panic(ErrClosed)
	}
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Get retorna o valor somente se now <= expiresAt. Entrada vencida é removida na hora,
// mesmo que a varredura ainda não tenha rodado.
func (s *Store) Get(key string) (any, bool) {
	now := s.clock.Now()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		panic(ErrClosed)
	}
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		s.misses.Inc()
		return nil, false
	}
	if !now.After(e.expiresAt) {
		s.hits.Inc()
		return e.value, true
	}

	// Vencida: reconfirma sob lock de escrita. Um Set concorrente pode ter trocado a entrada.
	s.mu.Lock()
	if cur, ok := s.entries[key]; ok && now.After(cur.expiresAt) {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	s.misses.Inc()
	return nil, false
}

// Delete remove key. Retorna true se existia. Idempotente.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// DeletePattern remove todas as chaves que casam com a expressão regular pattern.
func (s *Store) DeletePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("cache: invalid pattern %q: %w", pattern, err)
	}

	var matched []string
	s.mu.RLock()
	for k := range s.entries {
		if re.MatchString(k) {
			matched = append(matched, k)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, k := range matched {
		if s.Delete(k) {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Sweep remove toda entrada já vencida no instante da chamada e retorna quantas saíram.
//
// Faz snapshot das candidatas sob RLock e remove cada uma sob Lock, reconfirmando o
// vencimento: escritas concorrentes durante a varredura não se perdem.
func (s *Store) Sweep() int {
	now := s.clock.Now()

	var stale []string
	s.mu.RLock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			stale = append(stale, k)
		}
	}
	s.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}

	removed := 0
	s.mu.Lock()
	for _, k := range stale {
		if e, ok := s.entries[k]; ok && now.After(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

// Stats não altera estado nem dispara expiração.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return Stats{
		Size:   len(keys),
		Keys:   keys,
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}

// Len é atalho para métricas (gauge); inclui entradas vencidas ainda não varridas.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Hits() uint64   { return s.hits.Load() }
func (s *Store) Misses() uint64 { return s.misses.Load() }

// Start inicia a goroutine de varredura. Chamadas repetidas são ignoradas.
// O loop termina com Stop ou quando ctx é cancelado.
func (s *Store) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.started || s.sweepEvery <= 0 {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.sweepLoop(ctx)
}

// Stop encerra a varredura e fecha o Store. Pode ser chamado mais de uma vez.
func (s *Store) Stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.lifeMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Store) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	t := time.NewTicker(s.sweepEvery)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				s.log.Debug("cache sweep", zap.Int("removed", n), zap.Int("size", s.Len()))
			}
		}
	}
}

// Key monta uma chave "prefix:p1:p2:...".
func Key(prefix string, parts ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
