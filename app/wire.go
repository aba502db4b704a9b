//go:build wireinject
// +build wireinject

package app

import (
	"content-gateway/config"

	"github.com/google/wire"
)

var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideCache,
	ProvideMonitor,
	ProvideMemoizer,
	ProvideSupabaseClient,
	ProvideContentStore,
	ProvideCachedContent,
	ProvideIdentity,
	ProvideLimiter,
	ProvideMemoryStats,
	ProvideRateStats,
	ProvideRateOptions,
	ProvideSlotPool,
	ProvideConcurrency,
	ProvideRegistry,
	ProvideUpstream,
	ProvideDeps,
	ProvideHandler,
	ProvideHTTPServer,
	wire.Struct(new(App), "*"),
)

// Initialize monta o App. O cleanup para a varredura do cache, o janitor, o Redis
// e o SQLite, na ordem inversa da criação.
func Initialize(cfg *config.Config) (*App, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
