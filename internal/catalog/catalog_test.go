package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 10, c.Len())

	cpu, ok := c.Get("cpu_usage")
	require.True(t, ok)
	assert.Equal(t, UnitPercent, cpu.Unit)
	assert.Equal(t, float64(90), cpu.CriticalAt)
	assert.True(t, cpu.HasThresholds())
	promQuery, ok := cpu.QueryFor(SourcePrometheus)
	require.True(t, ok)
	assert.Contains(t, promQuery, `mode="idle"`)
	ddQuery, ok := cpu.QueryFor(SourceDatadog)
	require.True(t, ok)
	assert.Contains(t, ddQuery, "system.cpu.idle")

	disk, ok := c.Get("disk_space")
	require.True(t, ok)
	assert.Equal(t, float64(85), disk.CriticalAt)
	assert.Equal(t, float64(70), disk.WarnAt)

	byMode, ok := c.Get("cpu_by_mode")
	require.True(t, ok)
	assert.False(t, byMode.HasThresholds())
	_, ok = byMode.QueryFor(SourceDatadog)
	assert.False(t, ok, "cpu_by_mode has no datadog expression")

	_, ok = c.Get("gpu_usage")
	assert.False(t, ok)
}

func TestListSorted(t *testing.T) {
	list := Default().List()
	require.Len(t, list, 10)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Name, list[i].Name)
	}
}

func TestEveryMetricHasPrometheusQuery(t *testing.T) {
	for _, m := range Default().List() {
		_, ok := m.QueryFor(SourcePrometheus)
		assert.True(t, ok, "metric %s is missing a prometheus expression", m.Name)
	}
}
