package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moolen/pulse/internal/api/handlers"
)

// contextWithTimeout bounds one dashboard refresh.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// Client fetches dashboard data from a running Pulse API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a dashboard API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Snapshot bundles everything one dashboard refresh needs.
type Snapshot struct {
	Summary   handlers.SummaryResponse
	Anomalies handlers.AnomalyResponse
	FetchedAt time.Time
}

// Fetch retrieves a full dashboard snapshot.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{FetchedAt: time.Now()}

	if err := c.getJSON(ctx, "/v1/summary", &snap.Summary); err != nil {
		return nil, fmt.Errorf("fetch summary: %w", err)
	}
	if err := c.getJSON(ctx, "/v1/anomalies", &snap.Anomalies); err != nil {
		return nil, fmt.Errorf("fetch anomalies: %w", err)
	}

	return snap, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, out)
}
