package server

import (
	"content-gateway/cache"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/monitor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "content_gateway"

// NewRegistry cria um registry próprio (não o global) com as latências do monitor,
// o estado do cache e, se houver, a ocupação do pool de concorrência.
func NewRegistry(mon *monitor.Monitor, store *cache.Store, pool domain.SlotPool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		monitor.NewCollector(mon, namespace),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Entries currently held by the TTL cache, including expired ones not yet swept.",
		}, func() float64 { return float64(store.Len()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "TTL cache lookups that returned a live entry.",
		}, func() float64 { return float64(store.Hits()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "TTL cache lookups that found nothing or an expired entry.",
		}, func() float64 { return float64(store.Misses()) }),
	)

	if pool != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Requests holding a concurrency slot.",
		}, func() float64 { return float64(pool.InFlight()) }))
	}
	return reg
}
