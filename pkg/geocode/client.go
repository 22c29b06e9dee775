// Package geocode provides forward geocoding of city/country pairs via a
// Nominatim-compatible HTTP service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Result holds the first match for a forward-geocoding query.
type Result struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Client resolves a city/country pair to coordinates.
type Client interface {
	Forward(ctx context.Context, city, country string) (*Result, error)
}

// Option configures the geocoder.
type Option func(*httpClient)

// WithBaseURL overrides the default service URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Public Nominatim
// asks for at most 1 req/s.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a geocoding Client. The User-Agent carries a
// per-process random suffix; public instances refuse clients with a
// generic or empty agent.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: fmt.Sprintf("aquarisk-workbench/1.0 (%s)", uuid.NewString()[:8]),
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nominatim returns lat/lon as JSON strings.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Forward geocodes a city/country pair, keeping only the first match.
func (c *httpClient) Forward(ctx context.Context, city, country string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", fmt.Sprintf("%s, %s", city, country))
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}
	if len(results) == 0 {
		return nil, eris.Errorf("geocode: no match for %q, %q", city, country)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lat")
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse lon")
	}

	return &Result{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}, nil
}
