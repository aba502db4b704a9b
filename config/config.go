// Package config carrega a configuração do gateway: padrões, arquivo YAML opcional
// (com ${VAR} expandido) e, por cima, as variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	AlgorithmWindow      = "window"
	AlgorithmTokenBucket = "token_bucket"

	AuthSupabase = "supabase"
	AuthJWT      = "jwt"
	AuthNone     = "none"

	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Rate        RateConfig        `yaml:"rate"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	Supabase    SupabaseConfig    `yaml:"supabase"`
	Content     ContentConfig     `yaml:"content"`
	Comments    CommentRules      `yaml:"comments"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" validate:"required"`
	// UpstreamURL é o frontend que renderiza as páginas; rotas fora de /api vão para ele.
	UpstreamURL     string        `yaml:"upstream_url" validate:"omitempty,url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

type RateConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Algorithm   string        `yaml:"algorithm" validate:"oneof=window token_bucket"`
	MaxRequests int           `yaml:"max_requests" validate:"gt=0"`
	Window      time.Duration `yaml:"window" validate:"gt=0"`
	RPS         float64       `yaml:"rps" validate:"gt=0"`
	Burst       int           `yaml:"burst" validate:"gt=0"`
	KeyHeader   string        `yaml:"key_header"`
	TrustXFF    bool          `yaml:"trust_xff"`
	AddHeaders  bool          `yaml:"add_headers"`
	Stats       RateStats     `yaml:"stats"`
}

type RateStats struct {
	Enabled       bool          `yaml:"enabled"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Enabled true"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	Prefix        string        `yaml:"prefix"`
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
	Bucket        string        `yaml:"bucket" validate:"oneof=minute none"`
	TrackKeys     bool          `yaml:"track_keys"`
}

type ConcurrencyConfig struct {
	Max     int           `yaml:"max" validate:"gte=0"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

type CacheConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gte=0"`
	// TTL dos resultados memoizados do content store.
	TTL time.Duration `yaml:"ttl" validate:"gt=0"`
	// ResponseTTL das respostas GET cacheadas.
	ResponseTTL time.Duration `yaml:"response_ttl" validate:"gt=0"`
}

type AuthConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=supabase jwt none"`
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type SupabaseConfig struct {
	URL            string `yaml:"url" validate:"omitempty,url"`
	ServiceRoleKey string `yaml:"service_role_key"`
}

type ContentConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=sqlite supabase"`
	SQLitePath string `yaml:"sqlite_path"`
}

type CommentRules struct {
	MinLength      int      `yaml:"min_length" validate:"gte=0"`
	MaxLength      int      `yaml:"max_length" validate:"gtefield=MinLength"`
	ForbiddenWords []string `yaml:"forbidden_words"`
}

type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Rate: RateConfig{
			Enabled:     true,
			Algorithm:   AlgorithmWindow,
			MaxRequests: 100,
			Window:      time.Minute,
			RPS:         10,
			Burst:       20,
			Stats: RateStats{
				Prefix: "ratelimit:stats",
				TTL:    24 * time.Hour,
				Bucket: "minute",
			},
		},
		Concurrency: ConcurrencyConfig{Max: 100},
		Cache: CacheConfig{
			SweepInterval: 5 * time.Minute,
			TTL:           time.Hour,
			ResponseTTL:   5 * time.Minute,
		},
		Auth:    AuthConfig{Provider: AuthSupabase},
		Content: ContentConfig{Backend: BackendSQLite, SQLitePath: "content.db"},
		Comments: CommentRules{
			MinLength:      2,
			MaxLength:      1000,
			ForbiddenWords: []string{"spam", "advertisement"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load monta a configuração final. path vazio pula o arquivo.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checa as tags de cada campo e as dependências entre seções.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	usesSupabase := c.Auth.Provider == AuthSupabase || c.Content.Backend == BackendSupabase
	if usesSupabase && (c.Supabase.URL == "" || c.Supabase.ServiceRoleKey == "") {
		return errors.New("invalid config: SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase auth provider or content backend")
	}
	if c.Auth.Provider == AuthJWT && c.Auth.JWTSecret == "" {
		return errors.New("invalid config: JWT_SECRET is required when AUTH_PROVIDER=jwt")
	}
	if c.Content.Backend == BackendSQLite && c.Content.SQLitePath == "" {
		return errors.New("invalid config: SQLITE_PATH is required when CONTENT_BACKEND=sqlite")
	}
	return nil
}
