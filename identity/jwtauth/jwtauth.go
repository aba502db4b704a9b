// Package jwtauth valida localmente (HS256) os access tokens emitidos pelo Supabase,
// sem ida ao provedor.
package jwtauth

import (
	"context"
	"errors"
	"fmt"

	"content-gateway/identity"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"user_role"`
	jwt.RegisteredClaims
}

type Validator struct {
	secret []byte
	issuer string
}

// New exige o segredo JWT do projeto; issuer vazio desliga a checagem de iss.
func New(secret, issuer string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("jwtauth: secret key required for HS256")
	}
	return &Validator{secret: []byte(secret), issuer: issuer}, nil
}

func (v *Validator) Resolve(_ context.Context, token string) (identity.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", identity.ErrUnauthenticated, err)
	}

	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: subject is not a uuid", identity.ErrUnauthenticated)
	}

	return identity.Identity{
		ID:    sub.String(),
		Email: claims.Email,
		Role:  identity.ParseRole(claims.Role),
	}, nil
}
