// Package analytics posts simulator run summaries to the visitor analytics API.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disastertech/disaster-sim-go/internal/sim"
)

// TimestampLayout matches JavaScript's Date.toISOString in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Event is the JSON body of a single analytics call.
type Event struct {
	Timestamp      string `json:"timestamp"`
	UserAgent      string `json:"user_agent"`
	Page           string `json:"page"`
	SimulatedAreas int    `json:"simulated_areas"`
	DeviceType     string `json:"device_type"`
}

// Client sends events to <base>/analytics.
type Client struct {
	endpoint  string
	userAgent string
	page      string
	client    *http.Client
	now       func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, userAgent, page string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("analytics client is missing a base URL")
	}
	c := &Client{
		endpoint:  strings.TrimRight(baseURL, "/") + "/analytics",
		userAgent: userAgent,
		page:      page,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the URL events are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Report implements sim.Reporter.
func (c *Client) Report(ctx context.Context, s sim.RunSummary) error {
	return c.Send(ctx, Event{
		Timestamp:      c.now().UTC().Format(TimestampLayout),
		UserAgent:      c.userAgent,
		Page:           c.page,
		SimulatedAreas: s.Areas,
		DeviceType:     s.DeviceType,
	})
}

// Send posts one event. Any non-2xx status is an error; the response body is
// otherwise ignored.
func (c *Client) Send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post analytics event to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("analytics API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
