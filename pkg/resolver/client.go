// Package resolver provides a client for the external VIN/odometer
// resolver. Lookups are best effort: every call is bounded by a fixed
// timeout and a failed or empty response is not an error condition for the
// pipeline, which treats it as "no enrichment data".
package resolver

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

// Resolution holds whatever the resolver knew about the lot. Any field may
// be empty.
type Resolution struct {
	VIN       string `json:"vin"`
	Odometer  string `json:"odometer"`
	TitleCode string `json:"title,omitempty"`
	Seller    string `json:"seller,omitempty"`
}

// Client defines the VIN resolver operations.
type Client interface {
	// Resolve looks up the full VIN and odometer for a lot id.
	Resolve(ctx context.Context, lotID string) (*Resolution, error)
}

// Option configures the resolver client.
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

// NewClient creates a resolver client. The endpoint may already carry a
// query string (e.g. an access token); the lot id is appended to it.
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

func (c *httpClient) Resolve(ctx context.Context, lotID string) (*Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	reqURL := c.endpoint + sep + "lot_id=" + url.QueryEscape(lotID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("resolver: unexpected status %d", resp.StatusCode)
	}

	var res Resolution
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, eris.Wrap(err, "resolver: unmarshal response")
	}

	return &res, nil
}
