// Package quote fetches equity quotes for listed clients.
package quote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Quote holds the subset of quote fields the workbench uses.
type Quote struct {
	MarketCap float64 `json:"market_cap"`
	ShortName string  `json:"short_name"`
	Sector    string  `json:"sector"`
}

// Fallback is the sentinel quote used when the provider is unavailable.
func Fallback() Quote {
	return Quote{MarketCap: 0, ShortName: "Err", Sector: "N/A"}
}

// Client looks up an equity quote by ticker.
type Client interface {
	Lookup(ctx context.Context, ticker string) (*Quote, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a quote client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			MarketCap float64 `json:"marketCap"`
			ShortName string  `json:"shortName"`
			Sector    string  `json:"sector"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (c *httpClient) Lookup(ctx context.Context, ticker string) (*Quote, error) {
	q := url.Values{}
	q.Set("symbols", ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v7/finance/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "quote: create request")
	}
	req.Header.Set("User-Agent", "aquarisk-workbench/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "quote: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "quote: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("quote: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, eris.Wrap(err, "quote: unmarshal response")
	}
	if len(qr.QuoteResponse.Result) == 0 {
		return nil, eris.Errorf("quote: no result for %q", ticker)
	}

	r := qr.QuoteResponse.Result[0]
	return &Quote{MarketCap: r.MarketCap, ShortName: r.ShortName, Sector: r.Sector}, nil
}
