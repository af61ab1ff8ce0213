package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds self-observability counters for a Prometheus source instance.
type Metrics struct {
	QueriesTotal prometheus.Counter // Total number of queries issued
	ErrorsTotal  prometheus.Counter // Total number of failed query attempts
	RetriesTotal prometheus.Counter // Total number of retried query attempts
}

// NewMetrics creates counters for a Prometheus source instance.
// The registerer parameter allows flexible registration (e.g., global registry, test registry).
// The instanceName parameter enables multi-instance metric tracking via ConstLabels.
func NewMetrics(reg prometheus.Registerer, instanceName string) *Metrics {
	queriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_prometheus_queries_total",
		Help:        "Total number of queries issued to the Prometheus instance",
		ConstLabels: prometheus.Labels{"instance": instanceName},
	})

	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_prometheus_errors_total",
		Help:        "Total number of failed query attempts",
		ConstLabels: prometheus.Labels{"instance": instanceName},
	})

	retriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_prometheus_retries_total",
		Help:        "Total number of retried query attempts",
		ConstLabels: prometheus.Labels{"instance": instanceName},
	})

	return &Metrics{
		QueriesTotal: registerCounter(reg, queriesTotal),
		ErrorsTotal:  registerCounter(reg, errorsTotal),
		RetriesTotal: registerCounter(reg, retriesTotal),
	}
}

// registerCounter registers a counter, reusing the existing collector
// when one with the same name and labels is already registered. Config
// hot-reloads re-create source instances under the same name, so
// registration must be idempotent.
func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}
