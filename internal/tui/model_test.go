package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/pulse/internal/api/handlers"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Summary: handlers.SummaryResponse{
			Metrics: []handlers.SummaryMetric{
				{
					Name: "cpu_usage",
					Unit: "percent",
					Series: []handlers.SummarySeries{
						{Labels: map[string]string{"instance": "host-a"}, Value: 95, Formatted: "95.0%", Status: "critical"},
					},
				},
				{
					Name: "network_in",
					Unit: "bytes_per_second",
					Series: []handlers.SummarySeries{
						{Labels: map[string]string{"instance": "host-a"}, Value: 1048576, Formatted: "1.00 MB/s", DeltaPercent: 12.5, Status: "ok"},
					},
				},
			},
		},
		FetchedAt: time.Now(),
	}
}

func TestIntervalAdjustment(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)

	next, _ := m.handleKeyMsg(keyMsg("+"))
	m = next.(Model)
	assert.Equal(t, 20*time.Second, m.interval)

	next, _ = m.handleKeyMsg(keyMsg("-"))
	m = next.(Model)
	assert.Equal(t, 15*time.Second, m.interval)
}

func TestIntervalBounds(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), minRefreshInterval)

	next, _ := m.handleKeyMsg(keyMsg("-"))
	m = next.(Model)
	assert.Equal(t, minRefreshInterval, m.interval, "interval must not go below minimum")

	m.interval = maxRefreshInterval
	next, _ = m.handleKeyMsg(keyMsg("+"))
	m = next.(Model)
	assert.Equal(t, maxRefreshInterval, m.interval, "interval must not exceed maximum")
}

func TestInvalidInitialIntervalFallsBack(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), time.Second)
	assert.Equal(t, defaultRefreshInterval, m.interval)
}

func TestPauseToggle(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)

	next, _ := m.handleKeyMsg(keyMsg("p"))
	m = next.(Model)
	assert.True(t, m.paused)

	// Ticks while paused do not trigger a fetch but keep the timer alive
	nextModel, cmd := m.Update(tickMsg(time.Now()))
	m = nextModel.(Model)
	assert.NotNil(t, cmd)

	next, _ = m.handleKeyMsg(keyMsg("p"))
	m = next.(Model)
	assert.False(t, m.paused)
}

func TestQuitKey(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)

	next, cmd := m.handleKeyMsg(keyMsg("q"))
	m = next.(Model)
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSnapshotUpdateClearsError(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)
	m.fetchErr = assert.AnError

	next, _ := m.Update(snapshotMsg{snapshot: testSnapshot()})
	m = next.(Model)
	assert.NoError(t, m.fetchErr)
	assert.NotNil(t, m.snapshot)
	assert.False(t, m.loading)
}

func TestViewRendersSnapshot(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)
	m.ready = true
	m.width = 120
	m.height = 40
	m.snapshot = testSnapshot()

	out := m.View()
	assert.Contains(t, out, "cpu_usage")
	assert.Contains(t, out, "95.0%")
	assert.Contains(t, out, "network_in")
	assert.Contains(t, out, "1.00 MB/s")
	assert.Contains(t, out, "+12.5%")
	assert.Contains(t, out, "no anomalies detected")
}

func TestViewBeforeFirstSnapshot(t *testing.T) {
	m := NewModel(NewClient("http://localhost:8080"), defaultRefreshInterval)
	m.ready = true

	assert.Contains(t, m.View(), "Loading")

	m.fetchErr = assert.AnError
	assert.Contains(t, m.View(), "Failed to reach Pulse API")
}

func TestSeriesLabel(t *testing.T) {
	assert.Equal(t, "", seriesLabel(nil))
	assert.Equal(t, "source=prom-a", seriesLabel(map[string]string{"source": "prom-a"}))
	assert.Equal(t, "device=eth0 mode=user",
		seriesLabel(map[string]string{"device": "eth0", "mode": "user", "source": "prom-a"}))
}
