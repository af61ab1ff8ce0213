package analysis

import (
	"fmt"
	"time"

	"github.com/moolen/pulse/internal/store"
)

// staleFactor is how many refresh intervals a series may miss before
// it is considered flatlined.
const staleFactor = 3

// FlatlineDetector flags series that have stopped receiving samples.
// A series is stale when its last sample is older than three times the
// collection interval.
type FlatlineDetector struct {
	metrics  []string
	interval time.Duration
}

// NewFlatlineDetector creates a detector over the given metric names.
// interval is the collector's refresh interval.
func NewFlatlineDetector(metrics []string, interval time.Duration) *FlatlineDetector {
	return &FlatlineDetector{metrics: metrics, interval: interval}
}

// Name returns the detector name.
func (d *FlatlineDetector) Name() string {
	return string(CategoryFlatline)
}

// Detect reports an info anomaly for every series whose last sample is
// older than the staleness cutoff.
func (d *FlatlineDetector) Detect(st *store.Store, window time.Duration, now time.Time) []Anomaly {
	cutoff := now.Add(-staleFactor * d.interval)

	var anomalies []Anomaly
	for _, metric := range d.metrics {
		for _, stats := range st.Stats(metric, window, now) {
			if !stats.LastSeen.Before(cutoff) {
				continue
			}

			anomalies = append(anomalies, Anomaly{
				Metric:    metric,
				Labels:    stats.Labels,
				Category:  CategoryFlatline,
				Severity:  SeverityInfo,
				Timestamp: stats.LastSeen,
				Summary: fmt.Sprintf("%s has not reported for %s",
					metric, now.Sub(stats.LastSeen).Round(time.Second)),
				Details: map[string]interface{}{
					"last_seen": stats.LastSeen,
				},
			})
		}
	}

	return anomalies
}
