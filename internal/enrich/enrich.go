package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/pkg/geocode"
	"github.com/aquarisk/workbench/pkg/llm"
	"github.com/aquarisk/workbench/pkg/news"
	"github.com/aquarisk/workbench/pkg/weather"
)

// Provider names used as keys of Bundle.Unavailable.
const (
	ProviderGeocode = "geocode"
	ProviderWeather = "weather"
	ProviderNews    = "news"
	ProviderWiki    = "wiki"
)

// Geocoder resolves a city and country to coordinates.
type Geocoder interface {
	Forward(ctx context.Context, city, country string) (*geocode.Result, error)
}

// WeatherProvider returns current conditions at a point.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// NewsProvider returns recent headlines for a topic.
type NewsProvider interface {
	Headlines(ctx context.Context, topic string) ([]news.Item, error)
}

// WikiProvider returns an encyclopedic summary for a title.
type WikiProvider interface {
	Summary(ctx context.Context, title string) (string, error)
}

// Analyst produces markdown commentary for an enriched site. It never
// fails; degraded output is part of the returned text.
type Analyst interface {
	Commentary(ctx context.Context, sc llm.SiteContext, question string) string
}

// Request carries the selection being enriched.
type Request struct {
	Entity   string `json:"entity"`
	SiteName string `json:"site_name,omitempty"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Sector   string `json:"sector,omitempty"`
	// Lat and Lon are used when already known; zero values trigger a
	// geocode lookup first.
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
	// Question is forwarded to the analyst; empty selects the default
	// risk assessment question.
	Question string `json:"question,omitempty"`
}

// Orchestrator fans a request out to the providers and assembles a
// bundle. Every provider is optional: a nil field is skipped.
type Orchestrator struct {
	Geocoder Geocoder
	Weather  WeatherProvider
	News     NewsProvider
	Wiki     WikiProvider
	Analyst  Analyst

	// Timeout bounds each individual provider call.
	Timeout time.Duration
}

const defaultTimeout = 5 * time.Second

// Run enriches the request. It never fails as a whole: provider errors
// are recorded in Bundle.Unavailable and the rest of the bundle stays
// usable.
func (o *Orchestrator) Run(ctx context.Context, req Request) *model.EnrichmentBundle {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	bundle := &model.EnrichmentBundle{Unavailable: map[string]string{}}
	var mu sync.Mutex

	fail := func(provider string, err error) {
		mu.Lock()
		bundle.Unavailable[provider] = err.Error()
		mu.Unlock()
		zap.L().Warn("enrich: provider unavailable",
			zap.String("provider", provider),
			zap.Error(err),
		)
	}

	// Coordinates first: the weather lookup needs them.
	lat, lon := req.Lat, req.Lon
	if lat == 0 && lon == 0 && o.Geocoder != nil {
		gctx, cancel := context.WithTimeout(ctx, timeout)
		res, err := o.Geocoder.Forward(gctx, req.City, req.Country)
		cancel()
		if err != nil {
			fail(ProviderGeocode, err)
		} else {
			lat, lon = res.Lat, res.Lon
			bundle.Geocode = &model.Geocode{Lat: res.Lat, Lon: res.Lon, DisplayName: res.DisplayName}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if o.Weather != nil && (lat != 0 || lon != 0) {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			cond, err := o.Weather.Current(wctx, lat, lon)
			if err != nil {
				fail(ProviderWeather, err)
				return nil
			}
			mu.Lock()
			bundle.Weather = &model.Weather{
				TempC:       cond.TempC,
				WindKmh:     cond.WindKmh,
				RainTodayMm: cond.RainTodayMm,
			}
			mu.Unlock()
			return nil
		})
	}

	if o.News != nil {
		g.Go(func() error {
			nctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			topic := fmt.Sprintf("%s eau environnement", req.Entity)
			items, err := o.News.Headlines(nctx, topic)
			if err != nil {
				fail(ProviderNews, err)
				return nil
			}
			mu.Lock()
			for _, it := range items {
				bundle.News = append(bundle.News, model.NewsItem{
					Title:     it.Title,
					Link:      it.Link,
					Published: it.Published,
				})
			}
			mu.Unlock()
			return nil
		})
	}

	if o.Wiki != nil {
		g.Go(func() error {
			wctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			summary, err := o.Wiki.Summary(wctx, req.Entity)
			if err != nil {
				fail(ProviderWiki, err)
				return nil
			}
			mu.Lock()
			bundle.WikiSummary = summary
			mu.Unlock()
			return nil
		})
	}

	// Goroutines swallow their errors, so Wait cannot fail.
	_ = g.Wait()

	// The news block always has at least one line to show.
	if len(bundle.News) == 0 {
		p := news.Placeholder()
		bundle.News = []model.NewsItem{{Title: p.Title, Link: p.Link, Published: p.Published}}
	}

	// Commentary last: it consumes the rest of the bundle.
	if o.Analyst != nil {
		facts := map[string]string{}
		if bundle.Weather != nil {
			facts["météo"] = fmt.Sprintf("%.1f°C, vent %.0f km/h, pluie %.1f mm", bundle.Weather.TempC, bundle.Weather.WindKmh, bundle.Weather.RainTodayMm)
		}
		if bundle.WikiSummary != "" {
			facts["profil"] = bundle.WikiSummary
		}
		bundle.Commentary = o.Analyst.Commentary(ctx, llm.SiteContext{
			Entity:   req.Entity,
			SiteName: req.SiteName,
			City:     req.City,
			Country:  req.Country,
			Sector:   req.Sector,
			Facts:    facts,
		}, req.Question)
	}

	return bundle
}
