package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moolen/pulse/internal/api/handlers"
)

const gaugeWidth = 30

// View renders the whole dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.snapshot == nil {
		if m.fetchErr != nil {
			return fmt.Sprintf("\n  %s\n\n  %s",
				errorStyle.Render("Failed to reach Pulse API: "+m.fetchErr.Error()),
				helpStyle.Render("r retry • q quit"))
		}
		return fmt.Sprintf("\n  %s Loading...", m.spinner.View())
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	for _, metric := range m.snapshot.Summary.Metrics {
		if len(metric.Series) == 0 {
			continue
		}
		b.WriteString(m.renderMetric(metric))
		b.WriteString("\n")
	}

	b.WriteString(m.renderAnomalies())
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with refresh state.
func (m Model) renderHeader() string {
	title := titleStyle.Render("Pulse — Infrastructure Dashboard")

	state := fmt.Sprintf("refresh %s", m.interval)
	if m.paused {
		state = pausedStyle.Render("PAUSED")
	} else if m.loading {
		state = m.spinner.View() + " refreshing"
	}

	return fmt.Sprintf("  %s   %s", title, labelStyle.Render(state))
}

// renderMetric renders one metric section with all its series.
func (m Model) renderMetric(metric handlers.SummaryMetric) string {
	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(sectionStyle.Render(metric.Name))
	if metric.Description != "" {
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(metric.Description))
	}
	b.WriteString("\n")

	for _, series := range metric.Series {
		b.WriteString("    ")
		if metric.Unit == "percent" {
			b.WriteString(renderGauge(series))
		} else {
			b.WriteString(renderReading(series))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderGauge renders a percent series as a colored bar.
func renderGauge(series handlers.SummarySeries) string {
	value := series.Value
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	filled := int(value / 100 * gaugeWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", gaugeWidth-filled)

	style := statusStyle(series.Status)
	return fmt.Sprintf("%s %s  %s",
		style.Render(bar),
		style.Render(series.Formatted),
		labelStyle.Render(seriesLabel(series.Labels)))
}

// renderReading renders a rate/ops series as a formatted value with its
// percent delta against the windowed mean.
func renderReading(series handlers.SummarySeries) string {
	arrow := "→"
	if series.DeltaPercent > 0 {
		arrow = "↑"
	} else if series.DeltaPercent < 0 {
		arrow = "↓"
	}

	delta := fmt.Sprintf("%s %+.1f%%", arrow, series.DeltaPercent)
	return fmt.Sprintf("%s %s  %s",
		valueStyle.Render(fmt.Sprintf("%12s", series.Formatted)),
		labelStyle.Render(delta),
		labelStyle.Render(seriesLabel(series.Labels)))
}

// renderAnomalies renders the anomaly panel, or nothing when all clear.
func (m Model) renderAnomalies() string {
	anomalies := m.snapshot.Anomalies.Anomalies
	if len(anomalies) == 0 {
		return "  " + okStyle.Render("✓ no anomalies detected") + "\n"
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Anomalies (%d)", len(anomalies))))
	b.WriteString("\n")

	limit := len(anomalies)
	if limit > 8 {
		limit = 8
	}
	for _, a := range anomalies[:limit] {
		style := okStyle
		switch a.Severity {
		case "critical":
			style = criticalStyle
		case "warning":
			style = warningStyle
		}
		b.WriteString(fmt.Sprintf("%s %s\n",
			style.Render(fmt.Sprintf("[%s]", a.Severity)),
			valueStyle.Render(a.Summary)))
	}
	if len(anomalies) > limit {
		b.WriteString(labelStyle.Render(fmt.Sprintf("… and %d more", len(anomalies)-limit)))
		b.WriteString("\n")
	}

	return "  " + anomalyPanelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n"
}

// renderFooter renders the help bar, the last update time, and any error.
func (m Model) renderFooter() string {
	help := strings.Join([]string{
		helpKeyStyle.Render("r") + labelStyle.Render(" refresh"),
		helpKeyStyle.Render("p") + labelStyle.Render(" pause"),
		helpKeyStyle.Render("+/-") + labelStyle.Render(" interval"),
		helpKeyStyle.Render("q") + labelStyle.Render(" quit"),
	}, labelStyle.Render(" • "))

	updated := labelStyle.Render(
		fmt.Sprintf("updated %s", m.snapshot.FetchedAt.Format("15:04:05")))

	footer := helpStyle.Render("  " + help + "   " + updated)

	if m.fetchErr != nil {
		footer += "\n  " + errorStyle.Render("refresh failed: "+m.fetchErr.Error())
	}

	return footer
}

// seriesLabel renders a compact label set, hiding the source attribution
// label when it is the only one.
func seriesLabel(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "source" && len(labels) > 1 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	return strings.Join(parts, " ")
}
