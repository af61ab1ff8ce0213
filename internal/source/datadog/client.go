package datadog

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
	defaultSite         = "https://api.datadoghq.com"
	defaultQueryTimeout = 10 * time.Second
	maxRetries          = 3
	retryBackoff        = time.Second

	// queryWindow is how far back the timeseries query reaches. Datadog's
	// query endpoint is range-based, so an instant value is derived from
	// the most recent point in this window.
	queryWindow = 5 * time.Minute
)

var retryableStatus = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client is an HTTP client wrapper for the Datadog v1 metrics API.
// Authentication uses the DD-API-KEY and DD-APPLICATION-KEY headers.
type Client struct {
	site       string
	apiKey     string
	appKey     string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *Metrics
}

// NewClient creates a new Datadog HTTP client with tuned connection pooling.
// site: Datadog API base URL (e.g., "https://api.datadoghq.eu"); empty uses the US site.
func NewClient(site, apiKey, appKey string, queryTimeout time.Duration, metrics *Metrics) *Client {
	if site == "" {
		site = defaultSite
	}
	if queryTimeout == 0 {
		queryTimeout = defaultQueryTimeout
	}

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
		site:   strings.TrimSuffix(site, "/"),
		apiKey: apiKey,
		appKey: appKey,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   queryTimeout,
		},
		logger:  logging.GetLogger("source.datadog.client"),
		metrics: metrics,
	}
}

// queryResponse is the envelope returned by /api/v1/query.
type queryResponse struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Series []series `json:"series"`
}

// series is one timeseries in a query response.
// Pointlist entries are [unix_millis, value] pairs; value may be null.
type series struct {
	Metric    string       `json:"metric"`
	Scope     string       `json:"scope"`
	Pointlist [][]*float64 `json:"pointlist"`
}

// Query evaluates a Datadog metric query and returns one sample per series,
// taken from the most recent non-null point within the query window.
// Transient server errors (500, 502, 503, 504) are retried up to 3 times
// with linear backoff.
func (c *Client) Query(ctx context.Context, expr string, ts time.Time) ([]model.Sample, error) {
	params := url.Values{}
	params.Set("query", expr)
	params.Set("from", strconv.FormatInt(ts.Add(-queryWindow).Unix(), 10))
	params.Set("to", strconv.FormatInt(ts.Unix(), 10))

	reqURL := fmt.Sprintf("%s/api/v1/query?%s", c.site, params.Encode())

	body, err := c.doWithRetry(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("query failed: %s", envelope.Error)
	}

	samples := make([]model.Sample, 0, len(envelope.Series))
	for _, s := range envelope.Series {
		sample, ok := latestPoint(s)
		if !ok {
			continue
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// Validate checks the configured API key via /api/v1/validate.
func (c *Client) Validate(ctx context.Context) error {
	reqURL := fmt.Sprintf("%s/api/v1/validate", c.site)
	_, err := c.doWithRetry(ctx, reqURL)
	return err
}

// doWithRetry executes an authenticated GET request, retrying on transient
// server errors. Backoff between attempts is linear: 1s, 2s, 3s.
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
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("DD-API-KEY", c.apiKey)
		req.Header.Set("DD-APPLICATION-KEY", c.appKey)

		if c.metrics != nil {
			c.metrics.QueriesTotal.Inc()
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			lastErr = fmt.Errorf("execute request: %w", err)
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
			lastErr = fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
			c.logger.Debug("Retryable status %d (attempt %d/%d)", resp.StatusCode, attempt+1, maxRetries+1)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			if c.metrics != nil {
				c.metrics.ErrorsTotal.Inc()
			}
			c.logger.Error("Datadog request failed: status=%d body=%s", resp.StatusCode, string(body))
			return nil, fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}

// latestPoint extracts the most recent non-null point from a series.
// Scope tags ("host:web01,env:prod") become labels; bare tags are kept
// under the "scope" label key.
func latestPoint(s series) (model.Sample, bool) {
	for i := len(s.Pointlist) - 1; i >= 0; i-- {
		point := s.Pointlist[i]
		if len(point) != 2 || point[0] == nil || point[1] == nil {
			continue
		}
		millis := int64(*point[0])
		return model.Sample{
			Metric:    s.Metric,
			Labels:    parseScope(s.Scope),
			Timestamp: time.UnixMilli(millis).UTC(),
			Value:     *point[1],
		}, true
	}
	return model.Sample{}, false
}

// parseScope converts a Datadog scope string into labels.
func parseScope(scope string) model.Labels {
	labels := model.Labels{}
	if scope == "" || scope == "*" {
		return labels
	}
	for _, tag := range strings.Split(scope, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if k, v, found := strings.Cut(tag, ":"); found {
			labels[k] = v
		} else {
			labels["scope"] = tag
		}
	}
	return labels
}
