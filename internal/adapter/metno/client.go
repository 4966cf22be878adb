// Package metno fetches METAR reports from the met.no tafmetar text endpoint.
package metno

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/cold-temp-correction/internal/observability"
)

// maxBodyBytes bounds the size of a feed response.
const maxBodyBytes = 4 << 20

// Client requests the latest METARs of a fixed station list.
type Client struct {
	baseURL    string
	stations   []string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a report feed client. met.no rejects requests without an
// identifying User-Agent.
func NewClient(baseURL string, stations []string, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		stations:  stations,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// FetchReports returns the raw feed text, one report per line.
func (c *Client) FetchReports(ctx context.Context) (string, error) {
	start := time.Now()
	body, err := c.doRequest(ctx)
	c.metrics.ReportFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ReportFetches.WithLabelValues("error").Inc()
		return "", err
	}
	c.metrics.ReportFetches.WithLabelValues("success").Inc()
	c.logger.Debug("report feed fetched", "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (c *Client) doRequest(ctx context.Context) (string, error) {
	params := url.Values{"icao": {strings.Join(c.stations, ",")}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("report feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("report feed error: status %d: %s", resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read report feed: %w", err)
	}
	return string(body), nil
}
