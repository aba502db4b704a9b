// Package clock abstrai a fonte de tempo usada por cache, rate limit e monitor.
//
// Em produção usamos Real (time.Now, com leitura monotônica). Nos testes usamos Fake,
// que só anda quando o teste manda (Advance/Set).
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Real retorna o relógio do processo.
func Real() Clock { return realClock{} }

// Fake é um relógio controlado manualmente. Seguro para uso concorrente.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance move o relógio para frente (d negativo também é aceito).
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
