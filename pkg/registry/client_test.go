package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_token"))
		switch r.URL.Path {
		case "/recherche":
			assert.Equal(t, "Verallia", r.URL.Query().Get("q"))
			w.Write([]byte(`{"resultats":[{"siren":"812163913"}]}`)) //nolint:errcheck
		case "/entreprise":
			assert.Equal(t, "812163913", r.URL.Query().Get("siren"))
			w.Write([]byte(`{
				"nom_entreprise": "VERALLIA",
				"finances": [{"chiffre_affaires": 3900000000, "resultat": 460000000, "capitaux_propres": 1200000000, "ebitda": 980000000}]
			}`)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	company, err := c.Lookup(context.Background(), "Verallia")
	require.NoError(t, err)
	assert.Equal(t, "VERALLIA", company.Name)
	assert.Equal(t, "812163913", company.SIREN)
	assert.InDelta(t, 3_900_000_000, company.Financials.Revenue, 1)
	assert.InDelta(t, 980_000_000, company.Financials.EBITDA, 1)
}

func TestLookupNoFinancials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recherche":
			w.Write([]byte(`{"resultats":[{"siren":"123456789"}]}`)) //nolint:errcheck
		case "/entreprise":
			w.Write([]byte(`{"nom_entreprise": "NEWCO", "finances": []}`)) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	company, err := c.Lookup(context.Background(), "Newco")
	require.NoError(t, err)
	assert.Equal(t, "NEWCO", company.Name)
	assert.Zero(t, company.Financials.Revenue)
}

func TestLookupNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"resultats":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient("secret", WithBaseURL(srv.URL))
	_, err := c.Lookup(context.Background(), "Ghost Corp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no match")
}

func TestLookupMissingKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Lookup(context.Background(), "Anyone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing api key")
}
