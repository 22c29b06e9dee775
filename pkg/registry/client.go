// Package registry fetches company financials from a Pappers-compatible
// company registry API. Lookup is two-phase: search by name, then fetch
// the entity by its SIREN identifier.
package registry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.pappers.fr/v2"

// Financials holds the latest published accounts of a company.
type Financials struct {
	Revenue   float64 `json:"revenue"`
	NetResult float64 `json:"net_result"`
	Equity    float64 `json:"equity"`
	EBITDA    float64 `json:"ebitda"`
}

// Company is the registry lookup result.
type Company struct {
	Name       string     `json:"name"`
	SIREN      string     `json:"siren"`
	Financials Financials `json:"financials"`
}

// Client looks up companies in the registry.
type Client interface {
	Lookup(ctx context.Context, query string) (*Company, error)
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a registry client. The API key is required; callers
// without one should skip the lookup and show empty financials.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Resultats []struct {
		SIREN string `json:"siren"`
		Nom   string `json:"nom_entreprise"`
	} `json:"resultats"`
}

type entityResponse struct {
	Nom      string `json:"nom_entreprise"`
	Finances []struct {
		ChiffreAffaires float64 `json:"chiffre_affaires"`
		Resultat        float64 `json:"resultat"`
		CapitauxPropres float64 `json:"capitaux_propres"`
		EBITDA          float64 `json:"ebitda"`
	} `json:"finances"`
}

// Lookup searches the registry by name and fetches the first match.
func (c *httpClient) Lookup(ctx context.Context, query string) (*Company, error) {
	if c.apiKey == "" {
		return nil, eris.New("registry: missing api key")
	}

	// Phase 1: search by name.
	q := url.Values{}
	q.Set("q", query)
	q.Set("api_token", c.apiKey)

	var sr searchResponse
	if err := c.getJSON(ctx, "/recherche?"+q.Encode(), &sr); err != nil {
		return nil, err
	}
	if len(sr.Resultats) == 0 {
		return nil, eris.Errorf("registry: no match for %q", query)
	}
	siren := sr.Resultats[0].SIREN

	// Phase 2: fetch the entity by identifier.
	q = url.Values{}
	q.Set("siren", siren)
	q.Set("api_token", c.apiKey)

	var er entityResponse
	if err := c.getJSON(ctx, "/entreprise?"+q.Encode(), &er); err != nil {
		return nil, err
	}

	company := &Company{Name: er.Nom, SIREN: siren}
	if len(er.Finances) > 0 {
		latest := er.Finances[0]
		company.Financials = Financials{
			Revenue:   latest.ChiffreAffaires,
			NetResult: latest.Resultat,
			Equity:    latest.CapitauxPropres,
			EBITDA:    latest.EBITDA,
		}
	}
	return company, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "registry: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "registry: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "registry: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("registry: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "registry: unmarshal response")
	}
	return nil
}
