package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"content-gateway/cache"
	"content-gateway/cache/memo"
	"content-gateway/middleware/ratelimit"
	"content-gateway/middleware/ratelimit/infra"
	"content-gateway/middleware/respcache"
	"content-gateway/monitor"

	"go.uber.org/zap"
)

// Exemplo: usando os middlewares direto num webserver próprio (sem o app).
func main() {
	log, _ := zap.NewDevelopment()
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := cache.New(cache.WithSweepInterval(time.Minute), cache.WithLogger(log))
	store.Start(ctx)
	defer store.Stop()

	mon := monitor.New()
	m := memo.New(store, memo.WithMonitor(mon), memo.WithLogger(log))

	mux := http.NewServeMux()
	mux.HandleFunc("/report", func(w http.ResponseWriter, r *http.Request) {
		report, err := memo.DoShared(r.Context(), m, "example.report", 30*time.Second, slowReport)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mon.All())
	})

	h := http.Handler(mux)
	h = respcache.New(store, respcache.Options{TTL: 10 * time.Second, Logger: log})(h)
	h = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{Max: 50, Logger: log})(h)
	h = ratelimit.Middleware(ratelimit.Options{
		Store:               infra.NewWindowStore(5, 10*time.Second),
		KeyHeader:           "X-Api-Key", // ou vazio para usar IP
		TrustXForwardedFor:  true,
		AddRateLimitHeaders: true,
		Logger:              log,
	})(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}

type report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Items       []string  `json:"items"`
}

func slowReport(ctx context.Context) (report, error) {
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return report{}, ctx.Err()
	}
	return report{GeneratedAt: time.Now(), Items: []string{"a", "b", "c"}}, nil
}
