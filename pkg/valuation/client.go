// Package valuation provides a client for the market-value (MMR) lookup
// service, keyed by VIN and odometer. Same best-effort contract as the VIN
// resolver: timeout-bounded, and absence of a value is not an error.
package valuation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the valuation operations.
type Client interface {
	// Value returns the market value for a VIN, or 0 when the service has
	// no valuation for it.
	Value(ctx context.Context, vin, odometer string) (float64, error)
}

// Option configures the valuation client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

// NewClient creates a valuation client. The endpoint may already carry a
// query string; vin and odometer are appended to it.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) Client {
	c := &httpClient{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// valueResponse tolerates the two field names seen in the wild.
type valueResponse struct {
	Value float64 `json:"value"`
	MMR   float64 `json:"mmr"`
}

func (c *httpClient) Value(ctx context.Context, vin, odometer string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	reqURL := c.endpoint + sep + "vin=" + url.QueryEscape(vin)
	if odometer != "" {
		reqURL += "&odometer=" + url.QueryEscape(odometer)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, eris.Wrap(err, "valuation: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrap(err, "valuation: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "valuation: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return 0, eris.Errorf("valuation: unexpected status %d", resp.StatusCode)
	}

	var res valueResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, eris.Wrap(err, "valuation: unmarshal response")
	}

	if res.Value > 0 {
		return res.Value, nil
	}
	return res.MMR, nil
}
