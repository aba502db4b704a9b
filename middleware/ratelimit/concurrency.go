package ratelimit

import (
	"net/http"
	"time"

	"content-gateway/apperr"
	"content-gateway/middleware/ratelimit/application"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/middleware/ratelimit/infra"

	"go.uber.org/zap"
)

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// Pool permite injetar o pool (ex.: para expor InFlight numa métrica).
	// Quando nil, um infra.ChanPool de tamanho Max é criado.
	Pool   domain.SlotPool
	Logger *zap.Logger
}

func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil && opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				opts.Logger.Warn("no concurrency slot available",
					zap.String("path", r.URL.Path),
					zap.Int("in_flight", opts.Pool.InFlight()),
				)
				apperr.Write(w, apperr.Unavailable("Server busy, try again later"))
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
