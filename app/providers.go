package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"content-gateway/cache"
	"content-gateway/cache/memo"
	"content-gateway/config"
	"content-gateway/content"
	contentsqlite "content-gateway/content/sqlite"
	contentsupabase "content-gateway/content/supabase"
	"content-gateway/identity"
	"content-gateway/identity/jwtauth"
	identitysupabase "content-gateway/identity/supabase"
	"content-gateway/middleware/cors"
	"content-gateway/middleware/ratelimit"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/middleware/ratelimit/infra"
	"content-gateway/middleware/validate"
	"content-gateway/monitor"
	"content-gateway/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// ProvideLogger monta o logger do processo a partir da seção log.
func ProvideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideCache cria o store com TTL e inicia a varredura.
func ProvideCache(cfg *config.Config, log *zap.Logger) (*cache.Store, func()) {
	store := cache.New(
		cache.WithSweepInterval(cfg.Cache.SweepInterval),
		cache.WithLogger(log),
	)
	store.Start(context.Background())
	return store, store.Stop
}

func ProvideMonitor() *monitor.Monitor {
	return monitor.New()
}

func ProvideMemoizer(store *cache.Store, mon *monitor.Monitor, log *zap.Logger) *memo.Memoizer {
	return memo.New(store, memo.WithMonitor(mon), memo.WithLogger(log))
}

// ProvideSupabaseClient devolve nil quando nem auth nem conteúdo usam Supabase.
func ProvideSupabaseClient(cfg *config.Config) (*supa.Client, error) {
	if cfg.Auth.Provider != config.AuthSupabase && cfg.Content.Backend != config.BackendSupabase {
		return nil, nil
	}
	client, err := supa.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return client, nil
}

// ProvideContentStore escolhe o backend de conteúdo.
func ProvideContentStore(cfg *config.Config, client *supa.Client, log *zap.Logger) (content.Store, func(), error) {
	switch cfg.Content.Backend {
	case config.BackendSupabase:
		return contentsupabase.New(client), func() {}, nil
	default:
		s, err := contentsqlite.New(cfg.Content.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("content backend ready", zap.String("backend", "sqlite"), zap.String("path", cfg.Content.SQLitePath))
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn("close content db", zap.Error(err))
			}
		}, nil
	}
}

// ProvideCachedContent decora o backend com memo e liga a invalidação do cache de
// respostas à criação de comentários.
func ProvideCachedContent(
	cfg *config.Config,
	backend content.Store,
	m *memo.Memoizer,
	mon *monitor.Monitor,
	store *cache.Store,
	log *zap.Logger,
) *content.Cached {
	c := content.NewCached(backend, m, mon, cfg.Cache.TTL, log)
	c.OnCommentCreated = server.InvalidateComments(store, log)
	c.Warmup(context.Background())
	return c
}

var errAuthDisabled = fmt.Errorf("%w: authentication disabled", identity.ErrUnauthenticated)

// ProvideIdentity escolhe quem valida o token. Com "none" todo token é recusado:
// comentários e rotas de admin ficam fechados.
func ProvideIdentity(cfg *config.Config, client *supa.Client, log *zap.Logger) (identity.Provider, error) {
	switch cfg.Auth.Provider {
	case config.AuthSupabase:
		return identitysupabase.NewFromClient(client, identitysupabase.DefaultBreakerConfig(),
			identitysupabase.WithLogger(log)), nil
	case config.AuthJWT:
		return jwtauth.New(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	case config.AuthNone:
		return identity.ProviderFunc(func(context.Context, string) (identity.Identity, error) {
			return identity.Identity{}, errAuthDisabled
		}), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// ProvideLimiter devolve nil com o rate limit desligado. O janitor do token bucket
// roda até o cleanup.
func ProvideLimiter(cfg *config.Config) (domain.LimiterStore, func()) {
	rc := cfg.Rate
	if !rc.Enabled {
		return nil, func() {}
	}
	if rc.Algorithm == config.AlgorithmTokenBucket {
		store := infra.NewTokenBucketStore(rc.RPS, rc.Burst)
		ctx, cancel := context.WithCancel(context.Background())
		store.StartJanitor(ctx)
		return store, cancel
	}
	return infra.NewWindowStore(rc.MaxRequests, rc.Window), func() {}
}

func ProvideMemoryStats(cfg *config.Config) *infra.MemoryStatsStore {
	return infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Rate.Stats.TrackKeys))
}

// ProvideRateStats sempre grava em memória (endpoint de admin) e, se habilitado,
// também no Redis.
func ProvideRateStats(cfg *config.Config, mem *infra.MemoryStatsStore) (domain.StatsStore, func(), error) {
	sc := cfg.Rate.Stats
	if !sc.Enabled {
		return mem, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     sc.RedisAddr,
		Password: sc.RedisPassword,
		DB:       sc.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis stats ping: %w", err)
	}

	rs := infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(sc.Prefix),
		infra.WithStatsTTL(sc.TTL),
		infra.WithStatsBucket(sc.Bucket),
		infra.WithStatsTrackKeys(sc.TrackKeys),
	)
	return infra.TeeStats{mem, rs}, func() { _ = rs.Close() }, nil
}

func ProvideRateOptions(cfg *config.Config, stats domain.StatsStore, log *zap.Logger) ratelimit.Options {
	return ratelimit.Options{
		Stats:               stats,
		KeyHeader:           cfg.Rate.KeyHeader,
		TrustXForwardedFor:  cfg.Rate.TrustXFF,
		AddRateLimitHeaders: cfg.Rate.AddHeaders,
		Logger:              log,
	}
}

// ProvideSlotPool devolve nil sem limite de concorrência.
func ProvideSlotPool(cfg *config.Config) domain.SlotPool {
	if cfg.Concurrency.Max <= 0 {
		return nil
	}
	return infra.NewChanPool(cfg.Concurrency.Max)
}

func ProvideConcurrency(cfg *config.Config, pool domain.SlotPool, log *zap.Logger) ratelimit.ConcurrencyOptions {
	return ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		AcquireTimeout: cfg.Concurrency.Timeout,
		Pool:           pool,
		Logger:         log,
	}
}

func ProvideRegistry(mon *monitor.Monitor, store *cache.Store, pool domain.SlotPool) *prometheus.Registry {
	return server.NewRegistry(mon, store, pool)
}

// ProvideUpstream devolve nil sem frontend configurado.
func ProvideUpstream(cfg *config.Config, log *zap.Logger) (*httputil.ReverseProxy, error) {
	if cfg.Server.UpstreamURL == "" {
		return nil, nil
	}
	return server.NewUpstream(cfg.Server.UpstreamURL, log)
}

func ProvideDeps(
	cfg *config.Config,
	log *zap.Logger,
	store *cache.Store,
	mon *monitor.Monitor,
	cached *content.Cached,
	ident identity.Provider,
	limiter domain.LimiterStore,
	rateOpts ratelimit.Options,
	mem *infra.MemoryStatsStore,
	conc ratelimit.ConcurrencyOptions,
	upstream *httputil.ReverseProxy,
	reg *prometheus.Registry,
) server.Deps {
	return server.Deps{
		Logger:      log,
		Cache:       store,
		Monitor:     mon,
		Content:     cached,
		Identity:    ident,
		Limiter:     limiter,
		RateOptions: rateOpts,
		Stats:       mem,
		Concurrency: conc,
		ResponseTTL: cfg.Cache.ResponseTTL,
		CommentRules: validate.Options{
			Required:       true,
			MinLength:      cfg.Comments.MinLength,
			MaxLength:      cfg.Comments.MaxLength,
			ForbiddenWords: cfg.Comments.ForbiddenWords,
		},
		CORS:     cors.DefaultOptions(),
		Upstream: upstream,
		Registry: reg,
	}
}

func ProvideHandler(d server.Deps) http.Handler {
	return server.New(d)
}

func ProvideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
