package datadog

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds self-observability counters for a Datadog source instance.
type Metrics struct {
	QueriesTotal prometheus.Counter // Total number of API requests issued
	ErrorsTotal  prometheus.Counter // Total number of failed request attempts
	RetriesTotal prometheus.Counter // Total number of retried request attempts
}

// NewMetrics creates counters for a Datadog source instance.
// The instanceName parameter enables multi-instance metric tracking via ConstLabels.
func NewMetrics(reg prometheus.Registerer, instanceName string) *Metrics {
	queriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_datadog_queries_total",
		Help:        "Total number of API requests issued to Datadog",
		ConstLabels: prometheus.Labels{"instance": instanceName},
	})

	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_datadog_errors_total",
		Help:        "Total number of failed request attempts",
		ConstLabels: prometheus.Labels{"instance": instanceName},
	})

	retriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "pulse_source_datadog_retries_total",
		Help:        "Total number of retried request attempts",
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
