package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"math"
	"time"
)

type Key string

// Decision é o resultado de uma tentativa de consumo para uma chave.
type Decision struct {
	Allowed bool
	// Limit é o máximo de requisições da janela (ou o burst, no token bucket).
	Limit     int
	Remaining int
	// ResetAt é quando a janela atual termina. Zero quando não se aplica.
	ResetAt time.Time
	// RetryAfter é quanto o cliente deve esperar quando bloqueado. É só uma
	// recomendação devolvida ao cliente; o limiter não a impõe.
	RetryAfter time.Duration
}

// RetryAfterSeconds arredonda RetryAfter para cima em segundos inteiros.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// LimiterStore consome uma unidade da cota de uma chave (ex: IP, API key, usuário)
// e devolve a decisão. A implementação pode ser janela fixa, token bucket, etc.
type LimiterStore interface {
	Take(Key) Decision
}
