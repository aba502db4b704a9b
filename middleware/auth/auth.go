// Package auth resolve o bearer token numa identidade (identity.Provider) e aplica a
// hierarquia de papéis ADMIN > AUTHOR > READER.
package auth

import (
	"net/http"
	"strings"

	"content-gateway/apperr"
	"content-gateway/identity"

	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Authenticate exige Authorization: Bearer <token>. Header ausente, formato errado ou
// falha do provedor respondem 401; nada chega ao próximo handler.
func Authenticate(p identity.Provider, log *zap.Logger) func(next http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				apperr.Write(w, apperr.Unauthenticated("Authorization header is required"))
				return
			}
			token, ok := strings.CutPrefix(header, bearerPrefix)
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				apperr.Write(w, apperr.Unauthenticated("Invalid authorization header"))
				return
			}

			id, err := p.Resolve(r.Context(), token)
			if err != nil {
				log.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				apperr.Write(w, apperr.Unauthenticated("Invalid or expired token").WithCause(err))
				return
			}
			if id.Role == "" {
				id.Role = identity.RoleReader
			}

			next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), id)))
		})
	}
}

// RequireRole rejeita com 403 quando o papel do chamador está abaixo de required.
// Deve rodar depois de Authenticate; sem identidade no contexto responde 401.
func RequireRole(required identity.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				apperr.Write(w, apperr.Unauthenticated(""))
				return
			}
			if !id.Role.AtLeast(required) {
				apperr.Write(w, apperr.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin() func(next http.Handler) http.Handler  { return RequireRole(identity.RoleAdmin) }
func RequireAuthor() func(next http.Handler) http.Handler { return RequireRole(identity.RoleAuthor) }
