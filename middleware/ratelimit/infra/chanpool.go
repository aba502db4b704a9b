package infra

import (
	"context"
	"sync"

	"content-gateway/middleware/ratelimit/domain"
)

// chanPool limita requisições em andamento com um channel bufferizado.
type chanPool struct {
	sem chan struct{}
}

// NewChanPool cria um pool com max vagas.
func NewChanPool(max int) domain.SlotPool {
	return &chanPool{sem: make(chan struct{}, max)}
}

// Acquire tenta primeiro sem bloquear, para que um ctx já cancelado não perca uma
// vaga livre no sorteio do select.
func (p *chanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return p.releaser(), true
	default:
	}

	select {
	case p.sem <- struct{}{}:
		return p.releaser(), true
	case <-ctx.Done():
		return nil, false
	}
}

// releaser devolve a vaga uma única vez, mesmo se chamado de novo.
func (p *chanPool) releaser() func() {
	var once sync.Once
	return func() { once.Do(func() { <-p.sem }) }
}

func (p *chanPool) InFlight() int { return len(p.sem) }
func (p *chanPool) Capacity() int { return cap(p.sem) }
