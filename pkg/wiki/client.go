// Package wiki fetches page summaries from a Wikipedia REST endpoint.
package wiki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://fr.wikipedia.org"

// Client fetches a short summary for a page title.
type Client interface {
	Summary(ctx context.Context, title string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default wiki base URL.
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

// NewClient creates a wiki summary client.
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

type summaryResponse struct {
	Extract string `json:"extract"`
}

func (c *httpClient) Summary(ctx context.Context, title string) (string, error) {
	endpoint := c.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", eris.Wrap(err, "wiki: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "wiki: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "wiki: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("wiki: unexpected status %d for %q", resp.StatusCode, title)
	}

	var sr summaryResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", eris.Wrap(err, "wiki: unmarshal response")
	}
	if sr.Extract == "" {
		return "", eris.Errorf("wiki: empty summary for %q", title)
	}
	return sr.Extract, nil
}
