package datadog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientQueryParsesSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/query", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("DD-API-KEY"))
		assert.Equal(t, "test-app-key", r.Header.Get("DD-APPLICATION-KEY"))
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.URL.Query().Get("to"))

		fmt.Fprint(w, `{
			"status": "ok",
			"series": [
				{
					"metric": "system.cpu.user",
					"scope": "host:web01,env:prod",
					"pointlist": [[1756600000000, 12.5], [1756600060000, 23.4]]
				},
				{
					"metric": "system.cpu.user",
					"scope": "host:web02",
					"pointlist": [[1756600060000, null], [1756600000000, 8.1]]
				}
			]
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-api-key", "test-app-key", 0, nil)
	samples, err := client.Query(context.Background(), "avg:system.cpu.user{*} by {host}", time.Now())
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "system.cpu.user", samples[0].Metric)
	assert.Equal(t, "web01", samples[0].Labels.Get("host"))
	assert.Equal(t, "prod", samples[0].Labels.Get("env"))
	assert.Equal(t, 23.4, samples[0].Value)
	assert.Equal(t, int64(1756600060), samples[0].Timestamp.Unix())

	// Null trailing point falls back to the previous one
	assert.Equal(t, 8.1, samples[1].Value)
}

func TestClientQuerySkipsEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": "ok",
			"series": [
				{"metric": "system.load.1", "scope": "*", "pointlist": [[1756600000000, null]]}
			]
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "k", 0, nil)
	samples, err := client.Query(context.Background(), "avg:system.load.1{*}", time.Now())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestClientQueryRetriesTransientErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		fmt.Fprint(w, `{"status":"ok","series":[]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "k", 0, nil)
	_, err := client.Query(context.Background(), "avg:system.load.1{*}", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestClientQueryDoesNotRetryAuthErrors(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"errors":["Forbidden"]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad", "bad", 0, nil)
	_, err := client.Query(context.Background(), "avg:system.load.1{*}", time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestClientQueryRejectsErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","error":"invalid query","series":[]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "k", 0, nil)
	_, err := client.Query(context.Background(), "nope(", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

func TestClientValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/validate", r.URL.Path)
		fmt.Fprint(w, `{"valid":true}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k", "k", 0, nil)
	require.NoError(t, client.Validate(context.Background()))
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		scope string
		want  map[string]string
	}{
		{"host:web01,env:prod", map[string]string{"host": "web01", "env": "prod"}},
		{"host:web01", map[string]string{"host": "web01"}},
		{"*", map[string]string{}},
		{"", map[string]string{}},
		{"standalone", map[string]string{"scope": "standalone"}},
	}

	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			got := parseScope(tt.scope)
			assert.Equal(t, len(tt.want), len(got))
			for k, v := range tt.want {
				assert.Equal(t, v, got.Get(k))
			}
		})
	}
}

func TestNewDatadogSourceRequiresKeys(t *testing.T) {
	_, err := NewDatadogSource("test-no-keys", map[string]interface{}{})
	require.Error(t, err)
}

func TestNewDatadogSourceReuseNameAfterReload(t *testing.T) {
	cfg := map[string]interface{}{
		"api_key": "a",
		"app_key": "b",
	}

	// Same invariant as the prometheus source: re-creating an instance
	// under its old name after a config reload must not panic on metric
	// registration.
	first, err := NewDatadogSource("test-reuse", cfg)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := NewDatadogSource("test-reuse", cfg)
	require.NoError(t, err)
	require.NotNil(t, second)
}
