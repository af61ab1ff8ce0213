// Package analysis inspects stored series for threshold breaches,
// statistical deviations and stale series.
package analysis

import (
	"time"

	"github.com/moolen/pulse/internal/model"
)

// Severity classifies how urgent an anomaly is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// rank orders severities for sorting, highest first.
func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Category names the detector that produced an anomaly.
type Category string

const (
	CategoryThreshold Category = "threshold"
	CategoryDeviation Category = "deviation"
	CategoryFlatline  Category = "flatline"
)

// Anomaly is a single finding produced by a detector.
type Anomaly struct {
	Metric    string                 `json:"metric"`
	Labels    model.Labels           `json:"labels"`
	Category  Category               `json:"category"`
	Severity  Severity               `json:"severity"`
	Timestamp time.Time              `json:"timestamp"`
	Summary   string                 `json:"summary"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
