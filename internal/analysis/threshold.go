package analysis

import (
	"fmt"
	"time"

	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/store"
	"github.com/moolen/pulse/internal/units"
)

// ThresholdDetector flags series whose latest value breaches the static
// warn/critical levels declared in the metric catalog. Metrics without
// thresholds are skipped.
type ThresholdDetector struct {
	catalog *catalog.Catalog
}

// NewThresholdDetector creates a detector over the given catalog.
func NewThresholdDetector(cat *catalog.Catalog) *ThresholdDetector {
	return &ThresholdDetector{catalog: cat}
}

// Name returns the detector name.
func (d *ThresholdDetector) Name() string {
	return string(CategoryThreshold)
}

// Detect evaluates the latest value of every series of every metric that
// declares thresholds.
func (d *ThresholdDetector) Detect(st *store.Store, window time.Duration, now time.Time) []Anomaly {
	var anomalies []Anomaly

	for _, metric := range d.catalog.List() {
		if !metric.HasThresholds() {
			continue
		}

		for _, sample := range st.Latest(metric.Name) {
			severity := Severity("")
			level := 0.0
			switch {
			case sample.Value >= metric.CriticalAt:
				severity, level = SeverityCritical, metric.CriticalAt
			case sample.Value >= metric.WarnAt:
				severity, level = SeverityWarning, metric.WarnAt
			default:
				continue
			}

			anomalies = append(anomalies, Anomaly{
				Metric:    metric.Name,
				Labels:    sample.Labels,
				Category:  CategoryThreshold,
				Severity:  severity,
				Timestamp: sample.Timestamp,
				Summary: fmt.Sprintf("%s at %s exceeds %s threshold (%s)",
					metric.Name, units.FormatPercent(sample.Value), severity, units.FormatPercent(level)),
				Details: map[string]interface{}{
					"value":     sample.Value,
					"threshold": level,
				},
			})
		}
	}

	return anomalies
}
