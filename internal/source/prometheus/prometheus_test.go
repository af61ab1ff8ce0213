package prometheus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moolen/pulse/internal/source"
)

func emptyVector(w http.ResponseWriter) {
	fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
}

func TestFactoryRegistered(t *testing.T) {
	factory, ok := source.GetFactory("prometheus")
	require.True(t, ok, "prometheus factory should self-register")

	_, err := factory("test-factory", map[string]interface{}{"url": "http://localhost:9090"})
	require.NoError(t, err)
}

func TestNewPrometheusSourceRequiresURL(t *testing.T) {
	_, err := NewPrometheusSource("test-no-url", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestNewPrometheusSourceRejectsInvalidTimeout(t *testing.T) {
	_, err := NewPrometheusSource("test-bad-timeout", map[string]interface{}{
		"url":     "http://localhost:9090",
		"timeout": "soon",
	})
	require.Error(t, err)
}

func TestSourceLifecycle(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		emptyVector(w)
	}))
	defer srv.Close()

	src, err := NewPrometheusSource("test-lifecycle", map[string]interface{}{
		"url":     srv.URL,
		"timeout": "2s",
	})
	require.NoError(t, err)

	meta := src.Metadata()
	assert.Equal(t, "test-lifecycle", meta.Name)
	assert.Equal(t, "prometheus", meta.Type)

	ctx := context.Background()
	require.NoError(t, src.Start(ctx))
	assert.Equal(t, source.Healthy, src.Health(ctx))

	require.NoError(t, src.Stop(ctx))
	assert.Equal(t, source.Degraded, src.Health(ctx))
}

func TestSourceStartFailsWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	src, err := NewPrometheusSource("test-unreachable", map[string]interface{}{"url": srv.URL})
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, src.Start(ctx))
	assert.Equal(t, source.Degraded, src.Health(ctx))
}

func TestSourceQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "up" {
			emptyVector(w)
			return
		}
		fmt.Fprint(w, `{
			"status": "success",
			"data": {
				"resultType": "vector",
				"result": [
					{"metric": {"instance": "host-a:9100"}, "value": [1756600000, "87.5"]}
				]
			}
		}`)
	}))
	defer srv.Close()

	src, err := NewPrometheusSource("test-query", map[string]interface{}{"url": srv.URL})
	require.NoError(t, err)

	samples, err := src.Query(context.Background(), `100 - avg(rate(node_cpu_seconds_total{mode="idle"}[5m])) * 100`, time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 87.5, samples[0].Value)
	assert.Equal(t, "host-a:9100", samples[0].Labels.Get("instance"))
}

func TestNewPrometheusSourceReuseNameAfterReload(t *testing.T) {
	cfg := map[string]interface{}{"url": "http://localhost:9091"}

	// Config reloads re-create instances under the same name; metric
	// registration on the default registerer must tolerate that instead
	// of panicking on duplicate registration.
	first, err := NewPrometheusSource("test-reuse", cfg)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := NewPrometheusSource("test-reuse", cfg)
	require.NoError(t, err)
	require.NotNil(t, second)
}
