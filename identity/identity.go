// Package identity define o contrato com o provedor de identidade.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated indica token ausente, inválido ou expirado, ou provedor indisponível.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
	RoleReader Role = "reader"
)

// ParseRole normaliza o papel vindo do provedor. Desconhecido ou vazio vira READER.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleAuthor, RoleReader:
		return r
	default:
		return RoleReader
	}
}

// Level é a posição do papel na ordem ADMIN(3) > AUTHOR(2) > READER(1).
func (r Role) Level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleAuthor:
		return 2
	default:
		return 1
	}
}

// AtLeast informa se r satisfaz o papel exigido.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Provider resolve um bearer token numa identidade com papel, numa única ida ao provedor.
type Provider interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// ProviderFunc adapta uma função a Provider.
type ProviderFunc func(ctx context.Context, token string) (Identity, error)

func (f ProviderFunc) Resolve(ctx context.Context, token string) (Identity, error) {
	return f(ctx, token)
}

type ctxKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
