package apiserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/pulse/internal/analysis"
	"github.com/moolen/pulse/internal/api/handlers"
	"github.com/moolen/pulse/internal/catalog"
	"github.com/moolen/pulse/internal/model"
	"github.com/moolen/pulse/internal/source"
	"github.com/moolen/pulse/internal/store"
)

type fakeSweep struct {
	last     time.Time
	interval time.Duration
}

func (f *fakeSweep) LastSweep() time.Time           { return f.last }
func (f *fakeSweep) RefreshInterval() time.Duration { return f.interval }

type fakeReadiness struct{ ready bool }

func (f *fakeReadiness) IsReady() bool { return f.ready }

type fakeSource struct{ name string }

func (f *fakeSource) Metadata() source.Metadata {
	return source.Metadata{Name: f.name, Version: "1.0.0", Type: "fake", Description: "test source"}
}
func (f *fakeSource) Start(ctx context.Context) error { return nil }
func (f *fakeSource) Stop(ctx context.Context) error  { return nil }
func (f *fakeSource) Health(ctx context.Context) source.HealthStatus {
	return source.Healthy
}
func (f *fakeSource) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	return nil, nil
}

func newTestServer(t *testing.T, ready ReadinessChecker) (*Server, *store.Store, *httptest.Server) {
	t.Helper()

	st, err := store.New(store.Config{})
	require.NoError(t, err)

	cat := catalog.Default()
	registry := source.NewRegistry()
	require.NoError(t, registry.Register("fake-1", &fakeSource{name: "fake-1"}))

	srv := New(Config{
		Port:             0,
		Store:            st,
		Catalog:          cat,
		Engine:           analysis.NewDefaultEngine(st, cat, 15*time.Second),
		Registry:         registry,
		Sweep:            &fakeSweep{last: time.Now(), interval: 15 * time.Second},
		ReadinessChecker: ready,
	})

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return srv, st, ts
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	var body map[string]interface{}
	resp := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyEndpoint(t *testing.T) {
	checker := &fakeReadiness{ready: false}
	_, _, ts := newTestServer(t, checker)

	resp := getJSON(t, ts.URL+"/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	checker.ready = true
	resp = getJSON(t, ts.URL+"/readyz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSummaryEndpoint(t *testing.T) {
	_, st, ts := newTestServer(t, nil)

	now := time.Now().UTC()
	st.Append(model.Sample{
		Metric:    "cpu_usage",
		Labels:    model.Labels{"instance": "host-a", "source": "fake-1"},
		Timestamp: now,
		Value:     95,
	})

	var body handlers.SummaryResponse
	resp := getJSON(t, ts.URL+"/v1/summary", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotEmpty(t, body.Metrics)
	var cpu *handlers.SummaryMetric
	for i := range body.Metrics {
		if body.Metrics[i].Name == "cpu_usage" {
			cpu = &body.Metrics[i]
		}
	}
	require.NotNil(t, cpu)
	require.Len(t, cpu.Series, 1)
	assert.Equal(t, 95.0, cpu.Series[0].Value)
	assert.Equal(t, "95.0%", cpu.Series[0].Formatted)
	assert.Equal(t, "critical", cpu.Series[0].Status)
	assert.Equal(t, "15s", body.RefreshInterval)
}

func TestTimelineEndpoint(t *testing.T) {
	_, st, ts := newTestServer(t, nil)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		st.Append(model.Sample{
			Metric:    "memory_usage",
			Labels:    model.Labels{"instance": "host-a"},
			Timestamp: now.Add(time.Duration(i-3) * 15 * time.Second),
			Value:     float64(50 + i),
		})
	}

	var body handlers.TimelineResponse
	resp := getJSON(t, ts.URL+"/v1/timeline?metric=memory_usage&window=10m", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "memory_usage", body.Metric)
	assert.Equal(t, "percent", body.Unit)
	require.Len(t, body.Series, 1)
	assert.Len(t, body.Series[0].Points, 3)
}

func TestTimelineValidation(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	resp := getJSON(t, ts.URL+"/v1/timeline", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/v1/timeline?metric=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/v1/timeline?metric=cpu_usage&window=-5m", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsCatalogEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	var body handlers.MetricsResponse
	resp := getJSON(t, ts.URL+"/v1/metrics", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body.Metrics, catalog.Default().Len())
}

func TestAnomaliesEndpoint(t *testing.T) {
	_, st, ts := newTestServer(t, nil)

	st.Append(model.Sample{
		Metric:    "cpu_usage",
		Labels:    model.Labels{"instance": "hot"},
		Timestamp: time.Now().UTC(),
		Value:     99,
	})

	var body handlers.AnomalyResponse
	resp := getJSON(t, ts.URL+"/v1/anomalies", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body.Anomalies)
	assert.Equal(t, "cpu_usage", body.Anomalies[0].Metric)
	assert.Equal(t, analysis.SeverityCritical, body.Anomalies[0].Severity)
}

func TestSourcesEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	var body handlers.SourcesResponse
	resp := getJSON(t, ts.URL+"/v1/sources", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Sources, 1)
	assert.Equal(t, "fake-1", body.Sources[0].Name)
	assert.Equal(t, "healthy", body.Sources[0].Health)
}

func TestLintEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	manifestText := "streamlit==1.32.0\npandas==2.2.0\nstreamlit==1.31.0\n"
	resp, err := http.Post(ts.URL+"/v1/manifest/lint", "text/plain", strings.NewReader(manifestText))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.LintResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Requirements, 3)
	require.Len(t, body.Findings, 1)
	assert.Equal(t, 3, body.Findings[0].Line)
	assert.True(t, body.HasErrors)
}

func TestMethodNotAllowed(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	resp := getJSON(t, ts.URL+"/v1/manifest/lint", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/summary", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagation(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	// Generated when absent
	resp2 := getJSON(t, ts.URL+"/healthz", nil)
	assert.NotEmpty(t, resp2.Header.Get("X-Request-ID"))
}

func TestPrometheusMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSummaryDeltaPercent(t *testing.T) {
	_, st, ts := newTestServer(t, nil)

	now := time.Now().UTC()
	labels := model.Labels{"instance": "host-a", "source": "fake-1"}
	st.Append(
		model.Sample{Metric: "memory_usage", Labels: labels, Timestamp: now.Add(-time.Minute), Value: 40},
		model.Sample{Metric: "memory_usage", Labels: labels, Timestamp: now, Value: 60},
	)

	var body handlers.SummaryResponse
	resp := getJSON(t, ts.URL+"/v1/summary", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var mem *handlers.SummaryMetric
	for i := range body.Metrics {
		if body.Metrics[i].Name == "memory_usage" {
			mem = &body.Metrics[i]
		}
	}
	require.NotNil(t, mem)
	require.Len(t, mem.Series, 1)

	// mean of 40 and 60 is 50; (60/50 - 1) * 100 = +20%
	assert.InDelta(t, 50.0, mem.Series[0].Mean, 0.001)
	assert.InDelta(t, 20.0, mem.Series[0].DeltaPercent, 0.001)
}
