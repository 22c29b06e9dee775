package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquarisk/workbench/pkg/geocode"
	"github.com/aquarisk/workbench/pkg/llm"
	"github.com/aquarisk/workbench/pkg/news"
	"github.com/aquarisk/workbench/pkg/weather"
)

type fakeGeocoder struct {
	res *geocode.Result
	err error
}

func (f *fakeGeocoder) Forward(context.Context, string, string) (*geocode.Result, error) {
	return f.res, f.err
}

type fakeWeather struct {
	cond *weather.Conditions
	err  error
	lat  float64
	lon  float64
}

func (f *fakeWeather) Current(_ context.Context, lat, lon float64) (*weather.Conditions, error) {
	f.lat, f.lon = lat, lon
	return f.cond, f.err
}

type fakeNews struct {
	items []news.Item
	err   error
}

func (f *fakeNews) Headlines(context.Context, string) ([]news.Item, error) {
	return f.items, f.err
}

type fakeWiki struct {
	summary string
	err     error
}

func (f *fakeWiki) Summary(context.Context, string) (string, error) {
	return f.summary, f.err
}

type fakeAnalyst struct {
	last llm.SiteContext
}

func (f *fakeAnalyst) Commentary(_ context.Context, sc llm.SiteContext, _ string) string {
	f.last = sc
	return "analyse: risque Medium"
}

func TestRunAllProvidersHealthy(t *testing.T) {
	fa := &fakeAnalyst{}
	o := &Orchestrator{
		Geocoder: &fakeGeocoder{res: &geocode.Result{Lat: 45.7, Lon: 4.8, DisplayName: "Lyon, France"}},
		Weather:  &fakeWeather{cond: &weather.Conditions{TempC: 21.5, WindKmh: 12, RainTodayMm: 0.4}},
		News:     &fakeNews{items: []news.Item{{Title: "Sécheresse dans la vallée"}}},
		Wiki:     &fakeWiki{summary: "Industriel français."},
		Analyst:  fa,
		Timeout:  time.Second,
	}

	b := o.Run(context.Background(), Request{
		Entity: "Arkema", City: "Lyon", Country: "France", Sector: "Chimie",
	})

	require.NotNil(t, b.Geocode)
	assert.InDelta(t, 45.7, b.Geocode.Lat, 1e-9)
	require.NotNil(t, b.Weather)
	assert.InDelta(t, 21.5, b.Weather.TempC, 1e-9)
	require.Len(t, b.News, 1)
	assert.Equal(t, "Sécheresse dans la vallée", b.News[0].Title)
	assert.Equal(t, "Industriel français.", b.WikiSummary)
	assert.Equal(t, "analyse: risque Medium", b.Commentary)
	assert.Empty(t, b.Unavailable)

	assert.Equal(t, "Arkema", fa.last.Entity)
	assert.Contains(t, fa.last.Facts["météo"], "21.5°C")
	assert.Equal(t, "Industriel français.", fa.last.Facts["profil"])
}

func TestRunWeatherUsesKnownCoordinates(t *testing.T) {
	fw := &fakeWeather{cond: &weather.Conditions{TempC: 10}}
	o := &Orchestrator{
		Geocoder: &fakeGeocoder{err: eris.New("should not be called")},
		Weather:  fw,
	}

	b := o.Run(context.Background(), Request{Entity: "X", Lat: 48.85, Lon: 2.35})

	assert.NotContains(t, b.Unavailable, ProviderGeocode)
	assert.InDelta(t, 48.85, fw.lat, 1e-9)
	assert.InDelta(t, 2.35, fw.lon, 1e-9)
}

func TestRunGeocodeFailureSkipsWeather(t *testing.T) {
	fw := &fakeWeather{cond: &weather.Conditions{}}
	o := &Orchestrator{
		Geocoder: &fakeGeocoder{err: eris.New("no match")},
		Weather:  fw,
		News:     &fakeNews{items: []news.Item{{Title: "ok"}}},
	}

	b := o.Run(context.Background(), Request{Entity: "X", City: "Nowhere", Country: "FR"})

	assert.Contains(t, b.Unavailable[ProviderGeocode], "no match")
	assert.Nil(t, b.Weather)
	require.Len(t, b.News, 1)
}

func TestRunAllProvidersDown(t *testing.T) {
	o := &Orchestrator{
		Geocoder: &fakeGeocoder{err: eris.New("geocode down")},
		Weather:  &fakeWeather{err: eris.New("weather down")},
		News:     &fakeNews{err: eris.New("news down")},
		Wiki:     &fakeWiki{err: eris.New("wiki down")},
	}

	b := o.Run(context.Background(), Request{Entity: "X", City: "Paris", Country: "France"})

	require.NotNil(t, b)
	assert.Len(t, b.Unavailable, 3) // weather skipped: no coordinates
	require.Len(t, b.News, 1)
	assert.Equal(t, news.Placeholder().Title, b.News[0].Title)
}

func TestRunEmptyNewsGetsPlaceholder(t *testing.T) {
	o := &Orchestrator{News: &fakeNews{items: nil}}

	b := o.Run(context.Background(), Request{Entity: "X"})

	require.Len(t, b.News, 1)
	assert.Equal(t, news.Placeholder().Title, b.News[0].Title)
	assert.Empty(t, b.Unavailable)
}

func TestRunNilProviders(t *testing.T) {
	o := &Orchestrator{}

	b := o.Run(context.Background(), Request{Entity: "X"})

	require.NotNil(t, b)
	require.Len(t, b.News, 1)
	assert.Empty(t, b.Commentary)
}
