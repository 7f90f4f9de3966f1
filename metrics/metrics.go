// Package metrics exports postcode index metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/hupe1980/postcodes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements postcodes.MetricsCollector.
type PrometheusCollector struct {
	OpensTotal    *prometheus.CounterVec
	OpenDuration  prometheus.Histogram
	LookupsTotal  *prometheus.CounterVec
	LookupLatency prometheus.Histogram
	LookupResults prometheus.Histogram
	LookupTokens  prometheus.Histogram
}

var _ postcodes.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates the collectors under namespace. They are
// not registered; see Register.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		OpensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_opens_total",
				Help:      "Total index constructions by status.",
			},
			[]string{"status"},
		),
		OpenDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_open_duration_seconds",
				Help:      "Index construction latency in seconds.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lookups_total",
				Help:      "Total lookups by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		LookupLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_latency_seconds",
				Help:      "Lookup latency in seconds.",
				Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		LookupResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_results_count",
				Help:      "Number of points returned per lookup.",
				Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000},
			},
		),
		LookupTokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_tokens_count",
				Help:      "Number of query tokens per lookup.",
				Buckets:   []float64{1, 2, 3, 4},
			},
		),
	}
}

// Collectors returns every collector for custom registration.
func (p *PrometheusCollector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.OpensTotal,
		p.OpenDuration,
		p.LookupsTotal,
		p.LookupLatency,
		p.LookupResults,
		p.LookupTokens,
	}
}

// Register registers all collectors with reg.
func (p *PrometheusCollector) Register(reg prometheus.Registerer) error {
	for _, c := range p.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordOpen implements postcodes.MetricsCollector.
func (p *PrometheusCollector) RecordOpen(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.OpensTotal.WithLabelValues(status).Inc()
	p.OpenDuration.Observe(duration.Seconds())
}

// RecordLookup implements postcodes.MetricsCollector.
func (p *PrometheusCollector) RecordLookup(tokens, results int, duration time.Duration, err error) {
	p.LookupLatency.Observe(duration.Seconds())
	switch {
	case err != nil:
		p.LookupsTotal.WithLabelValues("error").Inc()
		return
	case results == 0:
		p.LookupsTotal.WithLabelValues("zero_result").Inc()
	default:
		p.LookupsTotal.WithLabelValues("hit").Inc()
	}
	p.LookupResults.Observe(float64(results))
	p.LookupTokens.Observe(float64(tokens))
}

// NewCacheCollector exposes the hit and miss counters of a block cache.
// stats is typically the Stats method of a cache.BlockCache.
func NewCacheCollector(namespace, name string, stats func() (hits, misses int64)) prometheus.Collector {
	return &cacheCollector{
		stats: stats,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "block_cache", "hits_total"),
			"Total number of block cache hits.",
			nil, prometheus.Labels{"cache": name},
		),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "block_cache", "misses_total"),
			"Total number of block cache misses.",
			nil, prometheus.Labels{"cache": name},
		),
	}
}

type cacheCollector struct {
	stats        func() (hits, misses int64)
	hits, misses *prometheus.Desc
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	hits, misses := c.stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(misses))
}

// Handler returns the scrape handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
