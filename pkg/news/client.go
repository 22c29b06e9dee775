// Package news fetches recent headlines for a topic from an RSS search
// endpoint.
package news

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://news.google.com/rss/search"
	maxItems       = 6
)

// Item is a single headline.
type Item struct {
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Published string `json:"published,omitempty"`
}

// Placeholder is returned in place of an empty or failed feed so
// downstream rendering always has a stable shape.
func Placeholder() Item {
	return Item{Title: "No recent news"}
}

// Client fetches headlines for a topic.
type Client interface {
	Headlines(ctx context.Context, topic string) ([]Item, error)
}

// Option configures the client.
type Option func(*rssClient)

// WithBaseURL overrides the default RSS search endpoint.
func WithBaseURL(u string) Option {
	return func(c *rssClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *rssClient) {
		c.parser.Client = hc
	}
}

type rssClient struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewClient creates an RSS news client.
func NewClient(opts ...Option) Client {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 10 * time.Second}
	c := &rssClient{baseURL: defaultBaseURL, parser: p}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Headlines fetches up to six items for the topic. Callers substitute
// Placeholder when the result is empty or the call fails.
func (c *rssClient) Headlines(ctx context.Context, topic string) ([]Item, error) {
	q := url.Values{}
	q.Set("q", topic)
	q.Set("hl", "fr")
	q.Set("gl", "FR")
	q.Set("ceid", "FR:fr")

	feed, err := c.parser.ParseURLWithContext(c.baseURL+"?"+q.Encode(), ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "news: fetch feed for %q", topic)
	}

	items := make([]Item, 0, maxItems)
	for _, entry := range feed.Items {
		if len(items) == maxItems {
			break
		}
		items = append(items, Item{
			Title:     entry.Title,
			Link:      entry.Link,
			Published: entry.Published,
		})
	}
	return items, nil
}
