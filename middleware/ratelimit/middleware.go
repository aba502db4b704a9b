package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"content-gateway/apperr"
	"content-gateway/clock"
	"content-gateway/middleware/ratelimit/application"
	"content-gateway/middleware/ratelimit/domain"

	"go.uber.org/zap"
)

// AnonymousKey é a chave usada quando nenhuma origem identifica o cliente.
const AnonymousKey = "anonymous"

type KeyFunc func(r *http.Request) string

type Options struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	AddRateLimitHeaders bool
	Logger              *zap.Logger
	// Clock marca StatsEvent.At. Padrão clock.Real().
	Clock clock.Clock
}

func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			// pega o primeiro IP do X-Forwarded-For (cliente original)
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		// fallback: RemoteAddr
		addr := strings.TrimSpace(r.RemoteAddr)
		host, _, err := net.SplitHostPort(addr)
		if err == nil && host != "" {
			return host
		}
		if addr != "" {
			return addr
		}
		return AnonymousKey
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	svc := application.Service{Store: opts.Store}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			if key == "" {
				key = AnonymousKey
			}

			dec := svc.Decide(domain.Key(key))

			if opts.AddRateLimitHeaders {
				h := w.Header()
				h.Set("X-RateLimit-Key", key)
				if dec.Limit > 0 {
					h.Set("X-RateLimit-Limit", formatInt(dec.Limit))
					h.Set("X-RateLimit-Remaining", formatInt(dec.Remaining))
				}
				if !dec.ResetAt.IsZero() {
					h.Set("X-RateLimit-Reset", formatInt(int(dec.ResetAt.Unix())))
				}
			}

			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:        domain.Key(key),
					Allowed:    dec.Allowed,
					Method:     r.Method,
					Path:       r.URL.Path,
					RetryAfter: dec.RetryAfter,
					Limit:      dec.Limit,
					Remaining:  dec.Remaining,
					At:         opts.Clock.Now(),
				}
				if err := opts.Stats.Record(r.Context(), ev); err != nil {
					opts.Logger.Warn("ratelimit stats record failed", zap.Error(err))
				}
			}

			if !dec.Allowed {
				opts.Logger.Debug("rate limit exceeded",
					zap.String("key", key),
					zap.String("path", r.URL.Path),
					zap.Int("retry_after", dec.RetryAfterSeconds()),
				)
				apperr.Write(w, apperr.RateLimited(dec.RetryAfter))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
