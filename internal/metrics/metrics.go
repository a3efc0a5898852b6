package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics bundles the Prometheus collectors the service exposes.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPDuration   *prometheus.HistogramVec
	ChainCalls     *prometheus.CounterVec
	ScoresComputed prometheus.Counter
}

// New builds a registry with all application collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chaincred",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ChainCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chaincred",
			Name:      "chain_calls_total",
			Help:      "Contract registry calls by method and outcome.",
		}, []string{"method", "outcome"}),
		ScoresComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaincred",
			Name:      "scores_computed_total",
			Help:      "Credit score recalculations performed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPDuration,
		m.ChainCalls,
		m.ScoresComputed,
	)

	return m
}
