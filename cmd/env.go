package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/aquarisk/workbench/internal/enrich"
	"github.com/aquarisk/workbench/internal/store"
	"github.com/aquarisk/workbench/pkg/geocode"
	"github.com/aquarisk/workbench/pkg/llm"
	"github.com/aquarisk/workbench/pkg/news"
	"github.com/aquarisk/workbench/pkg/weather"
	"github.com/aquarisk/workbench/pkg/wiki"
)

// openStore builds the configured persistence backend.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// newOrchestrator wires the enrichment providers from config.
func newOrchestrator() *enrich.Orchestrator {
	return &enrich.Orchestrator{
		Geocoder: geocode.NewClient(geocode.WithBaseURL(cfg.Providers.Geocode.BaseURL)),
		Weather:  weather.NewClient(weather.WithBaseURL(cfg.Providers.Weather.BaseURL)),
		News:     news.NewClient(news.WithBaseURL(cfg.Providers.News.BaseURL)),
		Wiki:     wiki.NewClient(wiki.WithBaseURL(cfg.Providers.Wiki.BaseURL)),
		Analyst:  newAnalyst(),
		Timeout:  cfg.Providers.ProviderTimeout(),
	}
}

func newAnalyst() *llm.Analyst {
	return llm.NewAnalyst(cfg.Anthropic.Key, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
}
