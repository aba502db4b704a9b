// Package server monta o roteador HTTP do gateway.
//
// Ordem da cadeia: request id, recoverer e log; CORS; rate limit; concorrência; e por
// rota auth/papel, validação de conteúdo e cache de respostas antes do handler.
package server

import (
	"net/http"
	"net/http/httputil"
	"time"

	"content-gateway/cache"
	"content-gateway/content"
	"content-gateway/identity"
	"content-gateway/middleware/auth"
	"content-gateway/middleware/cors"
	"content-gateway/middleware/logging"
	"content-gateway/middleware/ratelimit"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/middleware/ratelimit/infra"
	"content-gateway/middleware/respcache"
	"content-gateway/middleware/validate"
	"content-gateway/monitor"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps são as dependências do roteador. Campos opcionais: Limiter, Stats, Upstream,
// Registry (nil desliga /metrics).
type Deps struct {
	Logger   *zap.Logger
	Cache    *cache.Store
	Monitor  *monitor.Monitor
	Content  *content.Cached
	Identity identity.Provider

	Limiter     domain.LimiterStore
	RateOptions ratelimit.Options
	Stats       *infra.MemoryStatsStore

	Concurrency ratelimit.ConcurrencyOptions

	ResponseTTL  time.Duration
	CommentRules validate.Options
	CORS         cors.Options

	Upstream *httputil.ReverseProxy
	Registry *prometheus.Registry
}

func New(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &handlers{
		log:     d.Logger,
		cache:   d.Cache,
		monitor: d.Monitor,
		content: d.Content,
		stats:   d.Stats,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.Middleware(d.Logger))
	r.Use(cors.Middleware(d.CORS))

	if d.Limiter != nil {
		opts := d.RateOptions
		opts.Store = d.Limiter
		if opts.Logger == nil {
			opts.Logger = d.Logger
		}
		r.Use(ratelimit.Middleware(opts))
	}
	if d.Concurrency.Pool != nil || d.Concurrency.Max > 0 {
		r.Use(ratelimit.ConcurrencyMiddleware(d.Concurrency))
	}

	r.Get("/healthz", h.health)
	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	cached := respcache.New(d.Cache, respcache.Options{TTL: d.ResponseTTL, Logger: d.Logger})
	authn := auth.Authenticate(d.Identity, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/posts", func(r chi.Router) {
			r.With(cached).Get("/", h.listPosts)
			r.With(cached).Get("/{id}", h.getPost)
			r.With(cached).Get("/{id}/comments", h.listComments)
			r.With(
				authn,
				auth.RequireRole(identity.RoleReader),
				validate.Content(d.CommentRules),
			).Post("/{id}/comments", h.createComment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authn, auth.RequireAdmin())
			r.Get("/cache", h.cacheStats)
			r.Delete("/cache", h.clearCache)
			r.Get("/performance", h.performance)
			r.Get("/ratelimit", h.rateStats)
		})

		r.NotFound(h.notFound)
	})

	if d.Upstream != nil {
		r.NotFound(d.Upstream.ServeHTTP)
	} else {
		r.NotFound(h.notFound)
	}

	return r
}

// InvalidateComments devolve o hook de content.Cached que derruba as respostas
// cacheadas dos comentários e do detalhe de um post.
func InvalidateComments(store *cache.Store, log *zap.Logger) func(postID string) {
	if log == nil {
		log = zap.NewNop()
	}
	return func(postID string) {
		base := "/api/posts/" + postID
		n := respcache.Invalidate(store, base+"/comments")
		n += respcache.Invalidate(store, base+":")
		log.Debug("response cache invalidated", zap.String("post_id", postID), zap.Int("entries", n))
	}
}
