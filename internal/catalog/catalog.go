// Package catalog defines the fixed set of host metrics Pulse collects.
package catalog

import "sort"

// Unit describes how a metric value is rendered.
type Unit string

const (
	// UnitPercent for 0-100 gauges
	UnitPercent Unit = "percent"
	// UnitBytesPerSecond for throughput rates
	UnitBytesPerSecond Unit = "bytes_per_second"
	// UnitOpsPerSecond for operation rates
	UnitOpsPerSecond Unit = "ops_per_second"
)

// Source types the catalog carries query expressions for. The keys
// match the source factory type names.
const (
	SourcePrometheus = "prometheus"
	SourceDatadog    = "datadog"
)

// Metric is a single catalog entry: a named query with rendering and
// threshold metadata.
type Metric struct {
	// Name is the catalog identifier (e.g. "cpu_usage")
	Name string `json:"name"`

	// Queries maps a source type to the expression evaluated against
	// sources of that type (PromQL for prometheus, Datadog query syntax
	// for datadog). A metric with no expression for a source type is
	// skipped when sweeping sources of that type.
	Queries map[string]string `json:"queries"`

	// Unit controls value formatting
	Unit Unit `json:"unit"`

	// Description is a short human-readable label
	Description string `json:"description"`

	// WarnAt and CriticalAt are threshold values; zero means no threshold
	WarnAt     float64 `json:"warn_at,omitempty"`
	CriticalAt float64 `json:"critical_at,omitempty"`
}

// HasThresholds reports whether the metric carries any threshold.
func (m Metric) HasThresholds() bool {
	return m.WarnAt > 0 || m.CriticalAt > 0
}

// QueryFor returns the query expression for the given source type.
func (m Metric) QueryFor(sourceType string) (string, bool) {
	q, ok := m.Queries[sourceType]
	return q, ok
}

// Catalog is a lookup table of metrics.
type Catalog struct {
	metrics map[string]Metric
}

// Default returns the built-in host metric catalog.
func Default() *Catalog {
	return New(
		Metric{
			Name: "cpu_usage",
			Queries: map[string]string{
				SourcePrometheus: `100 - (avg by(instance)(rate(node_cpu_seconds_total{mode="idle"}[1m])) * 100)`,
				SourceDatadog:    `100 - avg:system.cpu.idle{*}`,
			},
			Unit:        UnitPercent,
			Description: "CPU usage",
			WarnAt:      75,
			CriticalAt:  90,
		},
		Metric{
			Name: "memory_usage",
			Queries: map[string]string{
				SourcePrometheus: `(node_memory_MemTotal_bytes - node_memory_MemFree_bytes) / node_memory_MemTotal_bytes * 100`,
				SourceDatadog:    `100 * (1 - avg:system.mem.usable{*} / avg:system.mem.total{*})`,
			},
			Unit:        UnitPercent,
			Description: "Memory usage",
			WarnAt:      75,
			CriticalAt:  90,
		},
		Metric{
			Name: "cpu_by_mode",
			// Datadog's system check has no per-mode breakdown.
			Queries: map[string]string{
				SourcePrometheus: `rate(node_cpu_seconds_total[1m]) * 100`,
			},
			Unit:        UnitPercent,
			Description: "CPU usage by mode",
		},
		Metric{
			Name: "network_in",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_network_receive_bytes_total{device!="lo"}[1m]))`,
				SourceDatadog:    `sum:system.net.bytes_rcvd{*} by {device}`,
			},
			Unit:        UnitBytesPerSecond,
			Description: "Network receive throughput",
		},
		Metric{
			Name: "network_out",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_network_transmit_bytes_total{device!="lo"}[1m]))`,
				SourceDatadog:    `sum:system.net.bytes_sent{*} by {device}`,
			},
			Unit:        UnitBytesPerSecond,
			Description: "Network transmit throughput",
		},
		Metric{
			Name: "network_errors",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_network_receive_errs_total{device!="lo"}[1m]) + rate(node_network_transmit_errs_total{device!="lo"}[1m]))`,
				SourceDatadog:    `sum:system.net.packets_in.error{*} by {device} + sum:system.net.packets_out.error{*} by {device}`,
			},
			Unit:        UnitOpsPerSecond,
			Description: "Network errors",
		},
		Metric{
			Name: "disk_reads",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_disk_reads_completed_total[1m]))`,
				SourceDatadog:    `sum:system.io.r_s{*} by {device}`,
			},
			Unit:        UnitOpsPerSecond,
			Description: "Disk read operations",
		},
		Metric{
			Name: "disk_writes",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_disk_writes_completed_total[1m]))`,
				SourceDatadog:    `sum:system.io.w_s{*} by {device}`,
			},
			Unit:        UnitOpsPerSecond,
			Description: "Disk write operations",
		},
		Metric{
			Name: "disk_io_time",
			Queries: map[string]string{
				SourcePrometheus: `sum by (device) (rate(node_disk_io_time_seconds_total[1m]) * 100)`,
				SourceDatadog:    `avg:system.io.util{*} by {device}`,
			},
			Unit:        UnitPercent,
			Description: "Disk utilization",
		},
		Metric{
			Name: "disk_space",
			Queries: map[string]string{
				SourcePrometheus: `(node_filesystem_size_bytes - node_filesystem_free_bytes) / node_filesystem_size_bytes * 100`,
				SourceDatadog:    `100 * avg:system.disk.in_use{*} by {device}`,
			},
			Unit:        UnitPercent,
			Description: "Disk space usage",
			WarnAt:      70,
			CriticalAt:  85,
		},
	)
}

// New builds a catalog from the given metrics.
func New(metrics ...Metric) *Catalog {
	c := &Catalog{metrics: make(map[string]Metric, len(metrics))}
	for _, m := range metrics {
		c.metrics[m.Name] = m
	}
	return c
}

// Get returns the metric with the given name.
func (c *Catalog) Get(name string) (Metric, bool) {
	m, ok := c.metrics[name]
	return m, ok
}

// List returns all metrics sorted by name.
func (c *Catalog) List() []Metric {
	out := make([]Metric, 0, len(c.metrics))
	for _, m := range c.metrics {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.metrics)
}
