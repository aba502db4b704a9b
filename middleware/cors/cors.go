// Package cors responde CORS em duas camadas: go-chi/cors negocia a origem (ecoa a
// origem permitida, Vary: Origin) e, por cima, os headers Access-Control-* fixos são
// carimbados em todas as respostas. OPTIONS responde 200 sem chamar o próximo handler.
package cors

import (
	"net/http"
	"strings"

	chicors "github.com/go-chi/cors"
)

type Options struct {
	Origins []string
	Methods []string
	Headers []string
}

func DefaultOptions() Options {
	return Options{
		Origins: []string{"*"},
		Methods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		Headers: []string{"Content-Type", "Authorization"},
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	def := DefaultOptions()
	if len(opts.Origins) == 0 {
		opts.Origins = def.Origins
	}
	if len(opts.Methods) == 0 {
		opts.Methods = def.Methods
	}
	if len(opts.Headers) == 0 {
		opts.Headers = def.Headers
	}

	negotiate := chicors.Handler(chicors.Options{
		AllowedOrigins: opts.Origins,
		AllowedMethods: opts.Methods,
		AllowedHeaders: opts.Headers,
		// o preflight termina no stamp abaixo, com os headers fixos
		OptionsPassthrough: true,
	})

	// com uma origem só ela vale para qualquer resposta; com várias, só a que o
	// go-chi/cors aceitou (header ausente = origem recusada)
	fallbackOrigin := ""
	if len(opts.Origins) == 1 {
		fallbackOrigin = opts.Origins[0]
	}
	methods := strings.Join(opts.Methods, ", ")
	headers := strings.Join(opts.Headers, ", ")

	return func(next http.Handler) http.Handler {
		stamp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if h.Get("Access-Control-Allow-Origin") == "" && fallbackOrigin != "" {
				h.Set("Access-Control-Allow-Origin", fallbackOrigin)
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
		return negotiate(stamp)
	}
}
