package infra

import (
	"context"

	"throttling-gateway/middleware/throttle/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore exporta os contadores de decisão como métricas
// Prometheus, rotulados só por outcome (allowed/throttled/key_error).
//
// De propósito não rotula por Key nem por Path: cardinalidade por chave de
// partição (ex: IP de cliente) explodiria o número de séries.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "throttle_decisions_total",
			Help: "Throttling decisions by outcome",
		},
		[]string{"outcome"},
	)
	reg.MustRegister(decisions)
	return &PrometheusStatsStore{decisions: decisions}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	out := ev.Outcome
	if out == "" {
		out = domain.OutcomeAllowed
	}
	s.decisions.WithLabelValues(string(out)).Inc()
	return nil
}

// RegistryCollector expõe os contadores internos do Registry (buckets vivos,
// hits, misses, expulsões) sem exigir instrumentação no caminho quente:
// os valores são lidos dos atomics na hora do scrape.
type RegistryCollector struct {
	registry *Registry

	buckets   *prometheus.Desc
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
}

func NewRegistryCollector(r *Registry) *RegistryCollector {
	return &RegistryCollector{
		registry: r,
		buckets: prometheus.NewDesc(
			"throttle_registry_buckets",
			"Live token buckets in the registry", nil, nil),
		hits: prometheus.NewDesc(
			"throttle_registry_hits_total",
			"Registry lookups served by an existing bucket", nil, nil),
		misses: prometheus.NewDesc(
			"throttle_registry_misses_total",
			"Registry lookups that created a new bucket", nil, nil),
		evictions: prometheus.NewDesc(
			"throttle_registry_evictions_total",
			"Buckets discarded after idling past the grace period", nil, nil),
	}
}

func (c *RegistryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buckets
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
}

func (c *RegistryCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.registry.Stats()
	ch <- prometheus.MustNewConstMetric(c.buckets, prometheus.GaugeValue, float64(st.Buckets))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.Evictions))
}
