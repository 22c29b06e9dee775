// Package weather fetches current conditions from an Open-Meteo
// compatible service.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.open-meteo.com"

// Conditions are the current conditions at a point.
type Conditions struct {
	TempC       float64
	WindKmh     float64
	RainTodayMm float64
}

// Client fetches current weather for a coordinate pair.
type Client interface {
	Current(ctx context.Context, lat, lon float64) (*Conditions, error)
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

// NewClient creates a weather client.
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

type forecastResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
	} `json:"current_weather"`
	Daily struct {
		PrecipitationSum []float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (c *httpClient) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("current_weather", "true")
	q.Set("daily", "temperature_2m_max,precipitation_sum")
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "weather: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "weather: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "weather: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("weather: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, eris.Wrap(err, "weather: unmarshal response")
	}

	cond := &Conditions{
		TempC:   fr.CurrentWeather.Temperature,
		WindKmh: fr.CurrentWeather.WindSpeed,
	}
	if len(fr.Daily.PrecipitationSum) > 0 {
		cond.RainTodayMm = fr.Daily.PrecipitationSum[0]
	}
	return cond, nil
}
