package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquarisk/workbench/internal/enrich"
	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/store"
	"github.com/aquarisk/workbench/pkg/news"
)

func newTestServer(t *testing.T, orch *enrich.Orchestrator) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(New(st, orch, nil, nil).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body map[string]string
	resp := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateClient(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/clients", map[string]string{"name": "Verallia", "sector": "Agroalimentaire"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var c model.Client
	decode(t, resp, &c)
	assert.Equal(t, "Verallia", c.Name)
	assert.NotZero(t, c.ID)

	// Same name again conflicts.
	resp = postJSON(t, srv.URL+"/clients", map[string]string{"name": "Verallia", "sector": "Agroalimentaire"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown sector is rejected.
	resp = postJSON(t, srv.URL+"/clients", map[string]string{"name": "Other", "sector": "Cryptomining"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSiteAndList(t *testing.T) {
	srv, st := newTestServer(t, nil)
	c, err := st.CreateClient(context.Background(), "Verallia", "Agroalimentaire")
	require.NoError(t, err)

	resp := postJSON(t, fmt.Sprintf("%s/clients/%d/sites", srv.URL, c.ID), model.Site{
		Name: "Cognac", Country: "France", City: "Cognac", Lat: 45.695, Lon: -0.329,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sites []model.Site
	getJSON(t, fmt.Sprintf("%s/clients/%d/sites", srv.URL, c.ID), &sites)
	require.Len(t, sites, 1)
	assert.Equal(t, "Cognac", sites[0].Name)
	assert.Equal(t, c.ID, sites[0].ClientID)
}

func TestSaveAuditAndHistory(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ctx := context.Background()
	c, err := st.CreateClient(ctx, "Verallia", "Agroalimentaire")
	require.NoError(t, err)
	site, err := st.CreateSite(ctx, model.Site{ClientID: c.ID, Name: "Cognac", Country: "France", City: "Cognac", Lat: 45.695})
	require.NoError(t, err)

	valuation := 10_000_000.0
	legal := 60.0
	resp := postJSON(t, fmt.Sprintf("%s/sites/%d/audits", srv.URL, site.ID), auditInputs{
		Valuation: &valuation, LegalPressure: &legal,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var audit model.Audit
	decode(t, resp, &audit)
	assert.Equal(t, site.ID, audit.SiteID)
	assert.Greater(t, audit.ScoreGlobal, 0.0)

	var audits []model.Audit
	getJSON(t, fmt.Sprintf("%s/sites/%d/audits", srv.URL, site.ID), &audits)
	require.Len(t, audits, 1)

	var loaded map[string]json.RawMessage
	r := getJSON(t, fmt.Sprintf("%s/audits/%d", srv.URL, audit.ID), &loaded)
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Contains(t, loaded, "snapshot")
	assert.Contains(t, loaded, "score")
}

func TestSaveAuditRejectsBadInputs(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ctx := context.Background()
	c, err := st.CreateClient(ctx, "Verallia", "Agroalimentaire")
	require.NoError(t, err)
	site, err := st.CreateSite(ctx, model.Site{ClientID: c.ID, Name: "Cognac"})
	require.NoError(t, err)

	negative := -5.0
	resp := postJSON(t, fmt.Sprintf("%s/sites/%d/audits", srv.URL, site.ID), auditInputs{Valuation: &negative})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/sites/999/audits", auditInputs{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScoreEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	valuation := 10_000_000.0
	resp := postJSON(t, srv.URL+"/score", auditInputs{Valuation: &valuation})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res map[string]float64
	decode(t, resp, &res)
	assert.Greater(t, res["score_global"], 0.0)
	assert.Greater(t, res["var_amount"], 0.0)
}

type stubNews struct{ err error }

func (s stubNews) Headlines(context.Context, string) ([]news.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []news.Item{{Title: "headline"}}, nil
}

func TestEnrichEndpoint(t *testing.T) {
	orch := &enrich.Orchestrator{News: stubNews{}}
	srv, _ := newTestServer(t, orch)

	resp := postJSON(t, srv.URL+"/enrich", enrich.Request{Entity: "Verallia", City: "Cognac", Country: "France"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bundle model.EnrichmentBundle
	decode(t, resp, &bundle)
	require.Len(t, bundle.News, 1)
	assert.Equal(t, "headline", bundle.News[0].Title)
}

func TestEnrichDegradedProviders(t *testing.T) {
	orch := &enrich.Orchestrator{News: stubNews{err: eris.New("feed down")}}
	srv, _ := newTestServer(t, orch)

	resp := postJSON(t, srv.URL+"/enrich", enrich.Request{Entity: "Verallia"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var bundle model.EnrichmentBundle
	decode(t, resp, &bundle)
	require.Len(t, bundle.News, 1)
	assert.Equal(t, news.Placeholder().Title, bundle.News[0].Title)
	assert.Contains(t, bundle.Unavailable, enrich.ProviderNews)
}

func TestEnrichNotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/enrich", enrich.Request{Entity: "X"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReportEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ctx := context.Background()
	c, err := st.CreateClient(ctx, "Verallia", "Agroalimentaire")
	require.NoError(t, err)
	site, err := st.CreateSite(ctx, model.Site{ClientID: c.ID, Name: "Cognac", Country: "France", City: "Cognac", Lat: 45.695})
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("%s/sites/%d/report", srv.URL, site.ID))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestReportSiteNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/sites/42/report")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPortfolioEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)
	ctx := context.Background()
	c, err := st.CreateClient(ctx, "Verallia", "Agroalimentaire")
	require.NoError(t, err)
	_, err = st.CreateSite(ctx, model.Site{ClientID: c.ID, Name: "Cognac"})
	require.NoError(t, err)

	var rows []model.PortfolioRow
	resp := getJSON(t, srv.URL+"/portfolio", &rows)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, rows, 1)
	assert.Equal(t, "Verallia", rows[0].ClientName)
}
