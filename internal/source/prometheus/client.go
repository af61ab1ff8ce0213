package prometheus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moolen/pulse/internal/logging"
	"github.com/moolen/pulse/internal/model"
)

const (
	defaultQueryTimeout = 10 * time.Second
	maxRetries          = 3
	retryBackoff        = time.Second
)

// retryableStatus lists HTTP status codes that trigger a retry.
var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is an HTTP client wrapper for the Prometheus HTTP API.
// It supports instant queries against /api/v1/query with automatic
// retries on transient server errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *Metrics
}

// NewClient creates a new Prometheus HTTP client with tuned connection pooling.
// baseURL: Prometheus instance URL (e.g., "http://prometheus:9090")
func NewClient(baseURL string, queryTimeout time.Duration, metrics *Metrics) *Client {
	if queryTimeout == 0 {
		queryTimeout = defaultQueryTimeout
	}

	// Tuned transport for repeated short-lived queries against one host
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxConnsPerHost:     20,
		MaxIdleConnsPerHost: 10, // default 2 causes connection churn
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,

		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   queryTimeout,
		},
		logger:  logging.GetLogger("source.prometheus.client"),
		metrics: metrics,
	}
}

// apiResponse is the envelope returned by the Prometheus HTTP API.
type apiResponse struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorType string          `json:"errorType,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// vectorData is the data payload for instant vector queries.
type vectorData struct {
	ResultType string         `json:"resultType"`
	Result     []vectorSample `json:"result"`
}

// vectorSample is a single series in a vector result.
// Value is a [unix_seconds, "value"] pair.
type vectorSample struct {
	Metric map[string]string `json:"metric"`
	Value  [2]interface{}    `json:"value"`
}

// Query executes a PromQL instant query at the given evaluation timestamp
// and returns the resulting samples. Transient server errors (500, 502,
// 503, 504) are retried up to 3 times with linear backoff.
func (c *Client) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	params := url.Values{}
	params.Set("query", expr)
	params.Set("time", strconv.FormatInt(ts.Unix(), 10))

	reqURL := fmt.Sprintf("%s/api/v1/query?%s", c.baseURL, params.Encode())

	body, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("query failed: %s (%s)", envelope.Error, envelope.ErrorType)
	}

	var data vectorData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("parse query data: %w", err)
	}
	if data.ResultType != "vector" {
		return nil, fmt.Errorf("unexpected result type %q (want vector)", data.ResultType)
	}

	samples := make([]model.Sample, 0, len(data.Result))
	for _, r := range data.Result {
		sample, err := parseVectorSample(r)
		if err != nil {
			c.logger.Warn("Skipping unparseable sample: %v", err)
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// Probe checks connectivity by evaluating the "up" metric.
// Returns error if the instance is unreachable or the query fails.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.Query(ctx, "up", time.Now())
	return err
}

// doWithRetry executes a GET request, retrying on transient server errors.
// Backoff between attempts is linear: 1s, 2s, 3s.
func (c *Client) doWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if c.metrics != nil {
				c.metrics.RetriesTotal.Inc()
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create query request: %w", err)
		}

		if c.metrics != nil {
			c.metrics.QueriesTotal.Inc()
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			lastErr = fmt.Errorf("execute query: %w", err)
			continue
		}

		// Always read response body to completion for connection reuse
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if retryableStatus[resp.StatusCode] {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			lastErr = fmt.Errorf("query failed (status %d): %s", resp.StatusCode, string(body))
			c.logger.Debug("Retryable status %d (attempt %d/%d)", resp.StatusCode, attempt+1, maxRetries+1)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			c.logger.Error("Prometheus query failed: status=%d body=%s", resp.StatusCode, string(body))
			return nil, fmt.Errorf("query failed (status %d): %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("query failed after %d attempts: %w", maxRetries+1, lastErr)
}

// parseVectorSample converts a raw vector entry into a model.Sample.
// The __name__ label becomes the sample's Metric; remaining labels are kept.
func parseVectorSample(r vectorSample) (model.Sample, error) {
	tsRaw, ok := r.Value[0].(float64)
	if !ok {
		return model.Sample{}, fmt.Errorf("invalid timestamp in value pair: %v", r.Value[0])
	}
	valRaw, ok := r.Value[1].(string)
	if !ok {
		return model.Sample{}, fmt.Errorf("invalid value in value pair: %v", r.Value[1])
	}
	val, err := strconv.ParseFloat(valRaw, 64)
	if err != nil {
		return model.Sample{}, fmt.Errorf("parse sample value %q: %w", valRaw, err)
	}

	labels := make(model.Labels, len(r.Metric))
	metricName := ""
	for k, v := range r.Metric {
		if k == "__name__" {
			metricName = v
			continue
		}
		labels[k] = v
	}

	sec, frac := int64(tsRaw), tsRaw-float64(int64(tsRaw))
	return model.Sample{
		Metric:    metricName,
		Labels:    labels,
		Timestamp: time.Unix(sec, int64(frac*float64(time.Second))).UTC(),
		Value:     val,
	}, nil
}
