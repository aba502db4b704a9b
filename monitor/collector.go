package monitor

import "github.com/prometheus/client_golang/prometheus"

// Collector exporta cada operação do Monitor como um summary constante do Prometheus.
// Os quantis vêm da janela atual de amostras, não de todo o histórico.
type Collector struct {
	m    *Monitor
	desc *prometheus.Desc
}

func NewCollector(m *Monitor, namespace string) *Collector {
	return &Collector{
		m: m,
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "operation_duration_seconds"),
			"Latency of tracked operations over the most recent samples.",
			[]string{"operation"},
			nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for op, s := range c.m.All() {
		ch <- prometheus.MustNewConstSummary(
			c.desc,
			uint64(s.Count),
			s.Sum.Seconds(),
			map[float64]float64{
				0.5:  s.P50.Seconds(),
				0.95: s.P95.Seconds(),
				0.99: s.P99.Seconds(),
			},
			op,
		)
	}
}
