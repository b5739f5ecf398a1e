package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/statex/statex/pkg/export"
	"github.com/statex/statex/pkg/httpx"
	"github.com/statex/statex/pkg/recorder"
)

const baseRetryDelay = 500 * time.Millisecond

// Config holds configuration for the statex client.
type Config struct {
	// BaseURL is the server address, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout bounds each request including reading the body. Zero uses
	// a default generous enough for streaming whole histories.
	Timeout time.Duration

	// Retries is how many times connection errors and 5xx responses are
	// retried before giving up.
	Retries int
}

// Client talks to a statex server.
type Client struct {
	config Config
	client *http.Client
}

// New creates a client for the given server.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Statistic is one entry of the server's statistics listing.
type Statistic struct {
	StatisticID string          `json:"statistic_id"`
	Name        string          `json:"name,omitempty"`
	Unit        string          `json:"unit_of_measurement"`
	HasMean     bool            `json:"has_mean"`
	HasSum      bool            `json:"has_sum"`
	Range       *recorder.Range `json:"range,omitempty"`
}

// Statistics lists the exportable series known to the server, sorted by
// statistic ID.
func (c *Client) Statistics(ctx context.Context) ([]Statistic, error) {
	resp, err := c.get(ctx, "/v1/statistics", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list []Statistic
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode statistics: %w", err)
	}
	return list, nil
}

// Export streams an export from the server into w and returns the number of
// bytes written.
func (c *Client) Export(ctx context.Context, w io.Writer, opts export.ExportOptions) (int64, error) {
	query := url.Values{}
	if opts.Format != "" {
		query.Set("format", string(opts.Format))
	}
	if !opts.Start.IsZero() {
		query.Set("start", opts.Start.Format(time.RFC3339))
	}
	if !opts.End.IsZero() {
		query.Set("end", opts.End.Format(time.RFC3339))
	}
	if len(opts.StatisticIDs) > 0 {
		query.Set("ids", strings.Join(opts.StatisticIDs, ","))
	}
	if opts.Timezone != "" {
		query.Set("timezone", opts.Timezone)
	}
	if opts.Pattern != "" {
		query.Set("pattern", opts.Pattern)
	}
	if opts.Delimiter != "" {
		query.Set("delimiter", opts.Delimiter)
	}
	if opts.DecimalSeparator == "," {
		query.Set("decimal_comma", "true")
	}

	resp, err := c.get(ctx, "/v1/export", query)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read export stream: %w", err)
	}
	return n, nil
}

// get issues a GET with retries on connection errors and 5xx responses.
// Callers own closing the body of a returned response.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.config.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to reach server: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return resp, nil
	}

	return nil, lastErr
}

// decodeError turns a non-200 response into an error, preferring the
// server's own message.
func decodeError(resp *http.Response) error {
	var apiErr httpx.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%s: %s", strings.ToLower(apiErr.Error), apiErr.Message)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}
