package application

import (
	"time"

	"content-gateway/middleware/ratelimit/domain"
)

// minRetryAfter é usado quando o store bloqueia sem dizer quanto esperar.
const minRetryAfter = 1 * time.Second

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Service struct {
	Store domain.LimiterStore
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	dec := s.Store.Take(key)
	if !dec.Allowed && dec.RetryAfter <= 0 {
		dec.RetryAfter = minRetryAfter
	}
	if dec.Allowed {
		dec.RetryAfter = 0
	}
	return dec
}
