package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("current_weather"))
		assert.Equal(t, "temperature_2m_max,precipitation_sum", r.URL.Query().Get("daily"))
		w.Write([]byte(`{
			"current_weather": {"temperature": 21.5, "windspeed": 12.3},
			"daily": {"precipitation_sum": [0.4, 1.2]}
		}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	cond, err := c.Current(context.Background(), 45.695, -0.329)
	require.NoError(t, err)
	assert.InDelta(t, 21.5, cond.TempC, 1e-9)
	assert.InDelta(t, 12.3, cond.WindKmh, 1e-9)
	assert.InDelta(t, 0.4, cond.RainTodayMm, 1e-9)
}

func TestCurrentNoPrecipitation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"current_weather": {"temperature": 10, "windspeed": 5}, "daily": {}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	cond, err := c.Current(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, cond.RainTodayMm)
}

func TestCurrentServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Current(context.Background(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}
