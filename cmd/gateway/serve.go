package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"content-gateway/app"
	"content-gateway/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			a, cleanup, err := app.Initialize(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return serve(ctx, a)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	return cmd
}

func serve(ctx context.Context, a *app.App) error {
	cfg, log := a.Config, a.Logger

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return err
	}

	log.Info("gateway listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("upstream", cfg.Server.UpstreamURL),
	)
	log.Info("rate",
		zap.Bool("enabled", cfg.Rate.Enabled),
		zap.String("algorithm", cfg.Rate.Algorithm),
		zap.Int("max_requests", cfg.Rate.MaxRequests),
		zap.Duration("window", cfg.Rate.Window),
		zap.Float64("rps", cfg.Rate.RPS),
		zap.Int("burst", cfg.Rate.Burst),
		zap.String("key_header", cfg.Rate.KeyHeader),
		zap.Bool("trust_xff", cfg.Rate.TrustXFF),
	)
	log.Info("rate-stats",
		zap.Bool("enabled", cfg.Rate.Stats.Enabled),
		zap.String("redis_addr", cfg.Rate.Stats.RedisAddr),
		zap.String("bucket", cfg.Rate.Stats.Bucket),
		zap.Duration("ttl", cfg.Rate.Stats.TTL),
		zap.Bool("track_keys", cfg.Rate.Stats.TrackKeys),
	)
	log.Info("concurrency", zap.Int("max", cfg.Concurrency.Max), zap.Duration("acquire_timeout", cfg.Concurrency.Timeout))
	log.Info("backends", zap.String("auth", cfg.Auth.Provider), zap.String("content", cfg.Content.Backend))

	return serveOn(ctx, a.Server, ln, cfg.Server.ShutdownTimeout, log)
}

// serveOn atende em ln até ctx encerrar e só retorna depois que Shutdown terminou:
// Serve devolve ErrServerClosed assim que o Shutdown começa, com requisições ainda
// em andamento, e o cleanup do app (cache, SQLite) não pode rodar antes delas.
func serveOn(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, log *zap.Logger) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	log.Info("gateway stopped")
	return nil
}
