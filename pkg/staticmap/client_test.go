package staticmap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/staticmap.php", r.URL.Path)
		assert.Equal(t, "45.69500,-0.32900", r.URL.Query().Get("center"))
		assert.Equal(t, "12", r.URL.Query().Get("zoom"))
		assert.Equal(t, "45.69500,-0.32900,red-pushpin", r.URL.Query().Get("markers"))
		w.Write(pngHeader) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewRenderer(WithBaseURL(srv.URL), WithZoom(12))
	path, err := r.Render(context.Background(), 45.695, -0.329)
	require.NoError(t, err)
	defer os.Remove(path) //nolint:errcheck

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestRenderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewRenderer(WithBaseURL(srv.URL))
	_, err := r.Render(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestRenderDistinctPaths(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(pngHeader) //nolint:errcheck
	}))
	defer srv.Close()

	r := NewRenderer(WithBaseURL(srv.URL))
	p1, err := r.Render(context.Background(), 1, 1)
	require.NoError(t, err)
	defer os.Remove(p1) //nolint:errcheck
	p2, err := r.Render(context.Background(), 1, 1)
	require.NoError(t, err)
	defer os.Remove(p2) //nolint:errcheck

	assert.NotEqual(t, p1, p2)
}
