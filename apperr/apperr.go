// Package apperr define os tipos de erro visíveis ao cliente e a tradução para HTTP.
//
// CacheMiss não é erro: leituras de cache retornam (valor, ok).
// Erros de um producer/handler embrulhado (UpstreamComputationFailed) são propagados
// sem alteração; só viram *Error na borda HTTP.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

type Kind string

const (
	KindRateLimited     Kind = "RATE_LIMITED"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindUpstream        Kind = "UPSTREAM"
	KindUnavailable     Kind = "UNAVAILABLE"
	KindInternal        Kind = "INTERNAL"
)

type Error struct {
	Kind       Kind
	Message    string
	Status     int
	RetryAfter time.Duration
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCause anexa o erro de origem.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// RetryAfterSeconds arredonda para cima: 1ms restante ainda vale 1s.
func (e *Error) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Message: "Rate limit exceeded", Status: http.StatusTooManyRequests, RetryAfter: retryAfter}
}

func Unauthenticated(msg string) *Error {
	if msg == "" {
		msg = "Authentication required"
	}
	return &Error{Kind: KindUnauthenticated, Message: msg, Status: http.StatusUnauthorized}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "Insufficient permissions"
	}
	return &Error{Kind: KindForbidden, Message: msg, Status: http.StatusForbidden}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Status: http.StatusBadRequest}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found", Status: http.StatusNotFound}
}

func Unavailable(msg string) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Status: http.StatusServiceUnavailable}
}

func Internal(msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Status: http.StatusInternalServerError}
}

type body struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// Write traduz err para resposta JSON. Erros que não são *Error viram 500 com
// mensagem genérica (detalhe fica só no log de quem chamou).
func Write(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = Internal("Internal server error")
	}

	b := body{Error: ae.Message}
	if ae.Kind == KindRateLimited {
		secs := ae.RetryAfterSeconds()
		b.RetryAfter = secs
		w.Header().Set("Retry-After", fmt.Sprint(secs))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status)
	_ = json.NewEncoder(w).Encode(b)
}
