package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv sobrescreve cfg com as variáveis de ambiente definidas e não vazias.
// Valor malformado é erro (não cai silenciosamente no padrão).
func applyEnv(cfg *Config) error {
	e := envReader{}

	e.strVar("LISTEN_ADDR", &cfg.Server.ListenAddr)
	e.strVar("UPSTREAM_URL", &cfg.Server.UpstreamURL)
	e.durationVar("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	e.boolVar("RATE_ENABLED", &cfg.Rate.Enabled)
	e.strVar("RATE_ALGORITHM", &cfg.Rate.Algorithm)
	e.intVar("RATE_MAX_REQUESTS", &cfg.Rate.MaxRequests)
	e.durationVar("RATE_WINDOW", &cfg.Rate.Window)
	e.floatVar("RATE_RPS", &cfg.Rate.RPS)
	// IMPORTANTE: o "burst" permite uma rajada inicial de requisições.
	// Com RPS muito baixo (ex: 0.02) e sem RATE_BURST, o padrão 20 dá a impressão
	// de que o limiter não funciona; nesse caso o burst cai para 1.
	if !e.intVar("RATE_BURST", &cfg.Rate.Burst) && isSet("RATE_RPS") && cfg.Rate.RPS > 0 && cfg.Rate.RPS < 1 {
		cfg.Rate.Burst = 1
	}
	e.strVar("RATE_KEY_HEADER", &cfg.Rate.KeyHeader)
	e.boolVar("TRUST_XFF", &cfg.Rate.TrustXFF)
	e.boolVar("ADD_RATELIMIT_HEADERS", &cfg.Rate.AddHeaders)

	e.boolVar("RATE_STATS_ENABLED", &cfg.Rate.Stats.Enabled)
	e.strVar("RATE_STATS_REDIS_ADDR", &cfg.Rate.Stats.RedisAddr)
	e.strVar("RATE_STATS_REDIS_PASSWORD", &cfg.Rate.Stats.RedisPassword)
	e.intVar("RATE_STATS_REDIS_DB", &cfg.Rate.Stats.RedisDB)
	e.strVar("RATE_STATS_PREFIX", &cfg.Rate.Stats.Prefix)
	e.durationVar("RATE_STATS_TTL", &cfg.Rate.Stats.TTL)
	e.strVar("RATE_STATS_BUCKET", &cfg.Rate.Stats.Bucket)
	e.boolVar("RATE_STATS_TRACK_KEYS", &cfg.Rate.Stats.TrackKeys)

	e.intVar("CONCURRENCY_MAX", &cfg.Concurrency.Max)
	e.durationVar("CONCURRENCY_TIMEOUT", &cfg.Concurrency.Timeout)

	e.durationVar("CACHE_SWEEP_INTERVAL", &cfg.Cache.SweepInterval)
	e.durationVar("CACHE_TTL", &cfg.Cache.TTL)
	e.durationVar("RESPONSE_CACHE_TTL", &cfg.Cache.ResponseTTL)

	e.strVar("AUTH_PROVIDER", &cfg.Auth.Provider)
	e.strVar("JWT_SECRET", &cfg.Auth.JWTSecret)
	e.strVar("JWT_ISSUER", &cfg.Auth.JWTIssuer)
	e.strVar("SUPABASE_URL", &cfg.Supabase.URL)
	e.strVar("SUPABASE_SERVICE_ROLE_KEY", &cfg.Supabase.ServiceRoleKey)

	e.strVar("CONTENT_BACKEND", &cfg.Content.Backend)
	e.strVar("SQLITE_PATH", &cfg.Content.SQLitePath)

	e.strVar("LOG_LEVEL", &cfg.Log.Level)
	e.boolVar("LOG_DEVELOPMENT", &cfg.Log.Development)

	return e.err
}

func isSet(k string) bool {
	v, ok := os.LookupEnv(k)
	return ok && v != ""
}

// envReader guarda o primeiro erro de parse.
type envReader struct {
	err error
}

func (e *envReader) lookup(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	return v, v != ""
}

func (e *envReader) fail(k, v string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", k, v, err)
	}
}

func (e *envReader) strVar(k string, dst *string) bool {
	v, ok := e.lookup(k)
	if ok {
		*dst = v
	}
	return ok
}

func (e *envReader) intVar(k string, dst *int) bool {
	v, ok := e.lookup(k)
	if !ok {
		return false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, err)
		return false
	}
	*dst = i
	return true
}

func (e *envReader) floatVar(k string, dst *float64) bool {
	v, ok := e.lookup(k)
	if !ok {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, err)
		return false
	}
	*dst = f
	return true
}

func (e *envReader) boolVar(k string, dst *bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(k, v, err)
		return false
	}
	*dst = b
	return true
}

func (e *envReader) durationVar(k string, dst *time.Duration) bool {
	v, ok := e.lookup(k)
	if !ok {
		return false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, err)
		return false
	}
	*dst = d
	return true
}
