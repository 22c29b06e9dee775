package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/store"
)

func newTestSession(t *testing.T) (*SessionContext, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st), st
}

func seedSite(t *testing.T, st store.Store) *model.Site {
	t.Helper()
	ctx := context.Background()
	c, err := st.CreateClient(ctx, "Verallia", "Agroalimentaire")
	require.NoError(t, err)
	site, err := st.CreateSite(ctx, model.Site{
		ClientID: c.ID,
		Name:     "Cognac",
		Country:  "France",
		City:     "Cognac",
		Lat:      45.695,
		Lon:      -0.329,
		Activity: "verrerie",
	})
	require.NoError(t, err)
	return site
}

func TestDefaults(t *testing.T) {
	s, _ := newTestSession(t)

	snap := s.Snapshot()
	assert.Equal(t, "Nouvelle Entreprise", snap.Entity)
	assert.Equal(t, "Paris", snap.City)
	assert.Equal(t, "France", snap.Country)
	assert.InDelta(t, 48.8566, snap.Lat, 1e-9)
	assert.InDelta(t, 2.3522, snap.Lon, 1e-9)
	assert.Equal(t, "Agroalimentaire", snap.Sector)
	assert.Zero(t, snap.Valuation)
	assert.Zero(t, s.CurrentSiteID())
}

func TestSelectSite(t *testing.T) {
	s, st := newTestSession(t)
	site := seedSite(t, st)

	require.NoError(t, s.SelectSite(context.Background(), site.ID))

	snap := s.Snapshot()
	assert.Equal(t, "Verallia", snap.Entity)
	assert.Equal(t, "Agroalimentaire", snap.Sector)
	assert.Equal(t, "Cognac", snap.SiteName)
	assert.InDelta(t, 45.695, snap.Lat, 1e-9)
	assert.False(t, snap.Unlocated)
	assert.Equal(t, site.ID, s.CurrentSiteID())
}

func TestSelectSiteNotFound(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.SelectSite(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, eris.Is(err, store.ErrNotFound))
}

func TestSelectClientClearsSiteSelection(t *testing.T) {
	s, st := newTestSession(t)
	site := seedSite(t, st)
	ctx := context.Background()

	require.NoError(t, s.SelectSite(ctx, site.ID))
	require.NoError(t, s.SelectClient(ctx, site.ClientID))
	assert.Zero(t, s.CurrentSiteID())
}

func TestInputValidation(t *testing.T) {
	s, _ := newTestSession(t)

	err := s.SetValuation(-1)
	assert.True(t, eris.Is(err, ErrInput))
	require.NoError(t, s.SetValuation(5_000_000))

	err = s.SetSector("Cryptomining")
	assert.True(t, eris.Is(err, ErrInput))
	require.NoError(t, s.SetSector("Chimie"))
	require.NoError(t, s.SetSector("Textile (80%)"))

	assert.True(t, eris.Is(s.SetParameters(-1, 0), ErrInput))
	assert.True(t, eris.Is(s.SetParameters(0, 101), ErrInput))
	require.NoError(t, s.SetParameters(60, 25))

	assert.True(t, eris.Is(s.SetSupplierRisk(120), ErrInput))
	require.NoError(t, s.SetSupplierRisk(40))
}

func TestScoreDelegation(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.SetValuation(10_000_000))

	res := s.Score()
	assert.Greater(t, res.Global, 0.0)
	assert.GreaterOrEqual(t, res.VaR, 0.0)
	assert.InDelta(t, 1.0, res.Coefficient, 1e-9)
}

func TestApplyBundle(t *testing.T) {
	s, _ := newTestSession(t)

	s.ApplyBundle(&model.EnrichmentBundle{
		Geocode:    &model.Geocode{Lat: 45.7, Lon: 4.8},
		Weather:    &model.Weather{TempC: 19},
		News:       []model.NewsItem{{Title: "headline"}},
		Commentary: "analyse",
	})

	snap := s.Snapshot()
	assert.InDelta(t, 45.7, snap.Lat, 1e-9)
	require.NotNil(t, snap.Weather)
	assert.Len(t, snap.News, 1)
	assert.Equal(t, "analyse", snap.Commentary)
	assert.False(t, snap.Unlocated)
}

func TestSaveAuditRequiresSite(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.SaveAudit(context.Background())
	assert.True(t, eris.Is(err, ErrInput))
}

func TestSaveLoadAuditRoundTrip(t *testing.T) {
	s, st := newTestSession(t)
	site := seedSite(t, st)
	ctx := context.Background()

	require.NoError(t, s.SelectSite(ctx, site.ID))
	require.NoError(t, s.SetValuation(10_000_000))
	require.NoError(t, s.SetParameters(60, 25))
	require.NoError(t, s.SetSupplierRisk(40))
	s.SetReuseInvest(true)
	// Volatile state must not round-trip.
	s.ApplyBundle(&model.EnrichmentBundle{
		Weather: &model.Weather{TempC: 30},
		News:    []model.NewsItem{{Title: "transient"}},
	})
	saved := s.Snapshot()
	want := s.Score()

	audit, err := s.SaveAudit(ctx)
	require.NoError(t, err)
	assert.Equal(t, site.ID, audit.SiteID)
	assert.InDelta(t, want.Global, audit.ScoreGlobal, 1e-9)

	s.Reset()
	require.NoError(t, s.LoadAudit(ctx, audit.ID))

	snap := s.Snapshot()
	assert.Equal(t, saved.Entity, snap.Entity)
	assert.Equal(t, saved.SiteName, snap.SiteName)
	assert.InDelta(t, saved.Valuation, snap.Valuation, 1e-9)
	assert.Equal(t, saved.ReuseInvest, snap.ReuseInvest)
	assert.InDelta(t, saved.LegalPressure, snap.LegalPressure, 1e-9)
	assert.Nil(t, snap.Weather)
	assert.Empty(t, snap.News)
	assert.Equal(t, site.ID, s.CurrentSiteID())
	assert.InDelta(t, want.Global, s.Score().Global, 1e-9)
}
