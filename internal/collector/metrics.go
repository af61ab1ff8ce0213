package collector

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds self-observability instruments for the collector.
type Metrics struct {
	SweepsTotal      prometheus.Counter   // Total number of completed sweeps
	SweepDuration    prometheus.Histogram // Duration of each sweep in seconds
	SamplesTotal     prometheus.Counter   // Total number of samples stored
	QueryErrorsTotal prometheus.Counter   // Total number of failed metric queries
}

// NewMetrics creates collector instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	sweepsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulse_collector_sweeps_total",
		Help: "Total number of completed collection sweeps",
	})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulse_collector_sweep_duration_seconds",
		Help:    "Duration of collection sweeps in seconds",
		Buckets: prometheus.DefBuckets,
	})

	samplesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulse_collector_samples_total",
		Help: "Total number of samples appended to the store",
	})

	queryErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pulse_collector_query_errors_total",
		Help: "Total number of failed metric queries",
	})

	reg.MustRegister(sweepsTotal)
	reg.MustRegister(sweepDuration)
	reg.MustRegister(samplesTotal)
	reg.MustRegister(queryErrorsTotal)

	return &Metrics{
		SweepsTotal:      sweepsTotal,
		SweepDuration:    sweepDuration,
		SamplesTotal:     samplesTotal,
		QueryErrorsTotal: queryErrorsTotal,
	}
}
