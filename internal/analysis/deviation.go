package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/moolen/pulse/internal/store"
)

const (
	// minDeviationPoints is the minimum number of points a series needs
	// before z-scores are meaningful.
	minDeviationPoints = 10

	warningZScore  = 2.0
	criticalZScore = 3.0
)

// DeviationDetector flags series whose latest value deviates from the
// windowed mean by two or more standard deviations.
type DeviationDetector struct {
	metrics []string
}

// NewDeviationDetector creates a detector over the given metric names.
func NewDeviationDetector(metrics []string) *DeviationDetector {
	return &DeviationDetector{metrics: metrics}
}

// Name returns the detector name.
func (d *DeviationDetector) Name() string {
	return string(CategoryDeviation)
}

// Detect computes z-scores over the window for every series and flags
// |z| >= 2 as warning, |z| >= 3 as critical. Series with fewer than 10
// points or near-zero variance are skipped.
func (d *DeviationDetector) Detect(st *store.Store, window time.Duration, now time.Time) []Anomaly {
	var anomalies []Anomaly

	for _, metric := range d.metrics {
		for _, stats := range st.Stats(metric, window, now) {
			if stats.Count < minDeviationPoints {
				continue
			}
			if stats.Stddev < 1e-9 {
				continue
			}

			z := (stats.Latest.Value - stats.Mean) / stats.Stddev
			abs := math.Abs(z)

			severity := Severity("")
			switch {
			case abs >= criticalZScore:
				severity = SeverityCritical
			case abs >= warningZScore:
				severity = SeverityWarning
			default:
				continue
			}

			direction := "above"
			if z < 0 {
				direction = "below"
			}

			anomalies = append(anomalies, Anomaly{
				Metric:    metric,
				Labels:    stats.Labels,
				Category:  CategoryDeviation,
				Severity:  severity,
				Timestamp: stats.Latest.Timestamp,
				Summary: fmt.Sprintf("%s is %.1f standard deviations %s its %s mean",
					metric, abs, direction, window),
				Details: map[string]interface{}{
					"value":   stats.Latest.Value,
					"mean":    stats.Mean,
					"stddev":  stats.Stddev,
					"z_score": z,
				},
			})
		}
	}

	return anomalies
}
