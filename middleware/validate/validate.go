// Package validate valida o campo "content" do corpo JSON antes do handler.
//
// Falha fechado: qualquer erro de leitura ou parse responde 400. O corpo validado fica
// no contexto (Body) e r.Body é restaurado para o handler poder ler de novo.
package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"content-gateway/apperr"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes limita o corpo lido pelo middleware.
const MaxBodyBytes = 1 << 20

var validate = validator.New()

type Options struct {
	Required  bool
	MinLength int
	MaxLength int
	// ForbiddenWords são procuradas como substring, sem diferenciar maiúsculas.
	ForbiddenWords []string
}

type ctxKey struct{}

// Body devolve o corpo JSON já validado.
func Body(ctx context.Context) (map[string]any, bool) {
	b, ok := ctx.Value(ctxKey{}).(map[string]any)
	return b, ok
}

func Content(opts Options) func(next http.Handler) http.Handler {
	forbidden := make([]string, 0, len(opts.ForbiddenWords))
	for _, w := range opts.ForbiddenWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			forbidden = append(forbidden, w)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
			if err != nil {
				apperr.Write(w, apperr.Validation("Invalid request body"))
				return
			}

			var body map[string]any
			if err := json.Unmarshal(raw, &body); err != nil || body == nil {
				apperr.Write(w, apperr.Validation("Invalid request body"))
				return
			}

			if err := check(body, opts, forbidden); err != nil {
				apperr.Write(w, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, body)))
		})
	}
}

func check(body map[string]any, opts Options, forbidden []string) *apperr.Error {
	content, present := contentString(body["content"])
	if !present {
		if opts.Required {
			return apperr.Validation("Content is required")
		}
		return nil
	}

	if opts.MinLength > 0 {
		if err := validate.Var(content, "min="+strconv.Itoa(opts.MinLength)); err != nil {
			return apperr.Validation(fmt.Sprintf("Content must be at least %d characters", opts.MinLength))
		}
	}
	if opts.MaxLength > 0 {
		if err := validate.Var(content, "max="+strconv.Itoa(opts.MaxLength)); err != nil {
			return apperr.Validation(fmt.Sprintf("Content must not exceed %d characters", opts.MaxLength))
		}
	}

	if len(forbidden) > 0 {
		lower := strings.ToLower(content)
		for _, word := range forbidden {
			if strings.Contains(lower, word) {
				return apperr.Validation("Content contains inappropriate words")
			}
		}
	}
	return nil
}

// contentString converte o valor de "content" para texto. Ausente, null, string vazia,
// false e 0 contam como ausentes.
func contentString(v any) (string, bool) {
	switch c := v.(type) {
	case nil:
		return "", false
	case string:
		return c, c != ""
	case bool:
		return strconv.FormatBool(c), c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64), c != 0
	default:
		b, err := json.Marshal(c)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}
