// Package supabase resolve tokens no Supabase Auth e busca o papel em user_profiles.
//
// As duas chamadas passam por um circuit breaker (sony/gobreaker). Com o breaker aberto
// o provedor nem é chamado e a requisição falha como não autenticada.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-gateway/identity"

	"github.com/sony/gobreaker"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// User é o que o provedor devolve para um token válido.
type User struct {
	ID    string
	Email string
}

// UserFunc valida o token no Supabase Auth.
type UserFunc func(ctx context.Context, token string) (User, error)

// RoleFunc busca o papel do usuário; "" quando não existe perfil.
type RoleFunc func(ctx context.Context, userID string) (string, error)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

type Provider struct {
	user UserFunc
	role RoleFunc
	cb   *gobreaker.CircuitBreaker
	log  *zap.Logger
}

type Option func(*Provider)

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

func New(user UserFunc, role RoleFunc, cfg BreakerConfig, opts ...Option) *Provider {
	p := &Provider{user: user, role: role, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "supabase-auth",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// token recusado é resposta válida do provedor, não falha do serviço
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, identity.ErrUnauthenticated)
		},
	})
	return p
}

// NewFromClient liga o provedor a um client supabase-go.
func NewFromClient(client *supa.Client, cfg BreakerConfig, opts ...Option) *Provider {
	user := func(_ context.Context, token string) (User, error) {
		u, err := client.Auth.WithToken(token).GetUser()
		if err != nil {
			return User{}, fmt.Errorf("%w: %v", identity.ErrUnauthenticated, err)
		}
		return User{ID: u.ID.String(), Email: u.Email}, nil
	}

	role := func(_ context.Context, userID string) (string, error) {
		var rows []struct {
			Role string `json:"role"`
		}
		if _, err := client.From("user_profiles").Select("role", "", false).Eq("id", userID).ExecuteTo(&rows); err != nil {
			return "", fmt.Errorf("fetch user profile: %w", err)
		}
		if len(rows) == 0 {
			return "", nil
		}
		return rows[0].Role, nil
	}

	return New(user, role, cfg, opts...)
}

func (p *Provider) Resolve(ctx context.Context, token string) (identity.Identity, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		u, err := p.user(ctx, token)
		if err != nil {
			return nil, err
		}
		role, err := p.role(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return identity.Identity{ID: u.ID, Email: u.Email, Role: identity.ParseRole(role)}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return identity.Identity{}, fmt.Errorf("%w: identity provider unavailable: %v", identity.ErrUnauthenticated, err)
		}
		return identity.Identity{}, err
	}
	return res.(identity.Identity), nil
}

// State expõe o estado do breaker (para logs e testes).
func (p *Provider) State() gobreaker.State { return p.cb.State() }
