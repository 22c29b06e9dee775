// Package staticmap renders a single-marker map image via a static-map
// HTTP service.
package staticmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://staticmap.openstreetmap.de"
	defaultZoom    = 10
)

// Renderer renders a map centered on a coordinate pair to a temporary
// PNG file. Callers own the file and must remove it on every exit path.
type Renderer interface {
	Render(ctx context.Context, lat, lon float64) (string, error)
}

// Option configures the renderer.
type Option func(*httpRenderer)

// WithBaseURL overrides the default service URL.
func WithBaseURL(u string) Option {
	return func(r *httpRenderer) {
		r.baseURL = u
	}
}

// WithZoom overrides the default zoom level.
func WithZoom(zoom int) Option {
	return func(r *httpRenderer) {
		r.zoom = zoom
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *httpRenderer) {
		r.http = hc
	}
}

type httpRenderer struct {
	baseURL string
	zoom    int
	http    *http.Client
}

// NewRenderer creates a static map renderer.
func NewRenderer(opts ...Option) Renderer {
	r := &httpRenderer{
		baseURL: defaultBaseURL,
		zoom:    defaultZoom,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render fetches a 400x300 PNG with a red marker at the center and
// writes it to a temp file, returning the path.
func (r *httpRenderer) Render(ctx context.Context, lat, lon float64) (string, error) {
	center := fmt.Sprintf("%.5f,%.5f", lat, lon)

	q := url.Values{}
	q.Set("center", center)
	q.Set("zoom", fmt.Sprintf("%d", r.zoom))
	q.Set("size", "400x300")
	q.Set("markers", center+",red-pushpin")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/staticmap.php?"+q.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "staticmap: create request")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "staticmap: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("staticmap: unexpected status %d", resp.StatusCode)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("aquarisk-map-%s.png", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "staticmap: create temp file")
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", eris.Wrap(err, "staticmap: write image")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", eris.Wrap(err, "staticmap: close image")
	}
	return path, nil
}
