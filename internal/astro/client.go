// Package astro is the HTTP adapter for the external astrology engine.
// It computes nothing itself: horoscope content and kundli charts come
// back as opaque JSON payloads.
package astro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Config describes the astrology engine endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the default client, primarily for testing.
	HTTPClient *http.Client
}

// Client talks to the astrology engine. It implements horoscope.Fetcher.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs an astrology engine client with a bounded request
// timeout so a hung upstream cannot stall a scheduler tick.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("astro client: base url is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    httpClient,
	}, nil
}

type horoscopeRequest struct {
	Sign   string `json:"sign"`
	Period string `json:"period"`
	Date   string `json:"date"`
}

// Fetch retrieves raw horoscope content for the sign and period. The
// engine expects capitalised sign labels; canonical lowercase identity
// stays a cache concern.
func (c *Client) Fetch(ctx context.Context, sign horoscope.Sign, period horoscope.Period, ref time.Time) (json.RawMessage, error) {
	payload := horoscopeRequest{
		Sign:   sign.Display(),
		Period: string(period),
		Date:   ref.Format("2006-01-02"),
	}
	return c.post(ctx, "/v1/horoscope", "horoscope", payload)
}

// BirthDetails carries the inputs for a kundli computation.
type BirthDetails struct {
	Name      string  `json:"name"`
	Gender    string  `json:"gender,omitempty"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Place     string  `json:"place"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  float64 `json:"timezone"`
}

// Kundli requests a full birth chart from the engine.
func (c *Client) Kundli(ctx context.Context, details BirthDetails) (json.RawMessage, error) {
	return c.post(ctx, "/v1/kundli", "kundli", details)
}

func (c *Client) post(ctx context.Context, path, operation string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("astro client: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("astro client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("astro client: %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("astro client: read %s response: %w", operation, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("astro client: %s returned status %d", operation, resp.StatusCode)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("astro client: %s returned malformed json", operation)
	}

	return json.RawMessage(data), nil
}
