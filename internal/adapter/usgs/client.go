package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/observability"
)

// DefaultBaseURL is the USGS FDSN event query endpoint.
const DefaultBaseURL = "https://earthquake.usgs.gov/fdsnws/event/1/query"

// maxBody caps the size of a feed response.
const maxBody = 64 << 20

// Client implements feed.Fetcher against an FDSN event service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a feed client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch runs the query and normalizes the response.
func (c *Client) Fetch(ctx context.Context, q feed.QueryParams) (domain.FeatureCollection, error) {
	start := time.Now()
	fc, err := c.fetch(ctx, q)
	c.metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return domain.FeatureCollection{}, err
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	return fc, nil
}

func (c *Client) fetch(ctx context.Context, q feed.QueryParams) (domain.FeatureCollection, error) {
	fullURL := c.baseURL + "?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	// FDSN services answer 204 when nothing matches.
	if resp.StatusCode == http.StatusNoContent {
		return domain.FeatureCollection{Layer: domain.LayerEarthquakes}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.FeatureCollection{}, fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return domain.FeatureCollection{}, fmt.Errorf("read response: %w", err)
	}
	fc, dropped, err := feed.Normalize(raw)
	if err != nil {
		return domain.FeatureCollection{}, err
	}
	if dropped > 0 {
		c.metrics.FeedDroppedFeatures.Add(float64(dropped))
		c.logger.Warn("feed features dropped", "dropped", dropped, "kept", fc.Len())
	}
	return fc, nil
}
