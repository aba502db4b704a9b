// Package respcache implementa o cache de respostas GET sobre o cache.Store.
//
// Só GET é cacheado, e só com status exatamente 200. O corpo capturado precisa ser
// JSON válido; os bytes são guardados como vieram e devolvidos iguais no HIT.
// Corpo inválido segue para o cliente normalmente e nada é guardado.
package respcache

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"content-gateway/cache"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	KeyPrefix = "response:"

	HeaderCache = "X-Cache"
	hit         = "HIT"
	miss        = "MISS"

	DefaultTTL = 5 * time.Minute
)

// CachedResponse é o valor guardado no store. Data é o corpo original, byte a byte.
type CachedResponse struct {
	Data       json.RawMessage
	StatusCode int
}

type Options struct {
	TTL    time.Duration
	Logger *zap.Logger
}

// Key monta a chave de cache de uma requisição.
func Key(r *http.Request) string {
	return KeyPrefix + r.Method + ":" + r.URL.Path + ":" + r.URL.RawQuery
}

func New(store *cache.Store, opts Options) func(next http.Handler) http.Handler {
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r)
			if v, ok := store.Get(key); ok {
				if cached, ok := v.(CachedResponse); ok {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set(HeaderCache, hit)
					w.WriteHeader(cached.StatusCode)
					_, _ = w.Write(cached.Data)
					return
				}
				// valor inesperado na chave: trata como miss
				log.Warn("discarding unusable cached response", zap.String("key", key))
			}

			w.Header().Set(HeaderCache, miss)

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// handler não escreveu nada: net/http responde 200
				status = http.StatusOK
			}
			if status != http.StatusOK {
				return
			}

			if !json.Valid(buf.Bytes()) {
				log.Debug("response not cached: body is not JSON", zap.String("key", key))
				return
			}
			store.Set(key, CachedResponse{Data: json.RawMessage(buf.Bytes()), StatusCode: status}, opts.TTL)
		})
	}
}

// Invalidate remove as respostas cacheadas de GET cujo path começa com pathPrefix.
func Invalidate(store *cache.Store, pathPrefix string) int {
	n, _ := store.DeletePattern("^" + regexp.QuoteMeta(KeyPrefix+http.MethodGet+":"+pathPrefix))
	return n
}
