package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Snapshot is the working context the analyst edits between operations.
// JSON tags keep the historical French field names so payloads written
// by earlier versions of the desk restore unchanged.
//
// Fields tagged "-" are volatile: they never round-trip through the
// audit store.
type Snapshot struct {
	Entity          string  `json:"entreprise"`
	SiteName        string  `json:"site"`
	Country         string  `json:"pays"`
	City            string  `json:"ville"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Sector          string  `json:"secteur"`
	Activity        string  `json:"activite,omitempty"`
	Valuation       float64 `json:"valo"`
	SupplierRiskPct float64 `json:"fournisseurs_risque"`
	ReuseInvest     bool    `json:"invest_reuse"`
	LegalPressure   float64 `json:"pression_legale"`
	ImageRisk       float64 `json:"risque_image"`
	Commentary      string  `json:"commentaire,omitempty"`
	Unlocated       bool    `json:"non_localise,omitempty"`

	// Volatile enrichment state, rebuilt on demand.
	News            []NewsItem `json:"-"`
	Weather         *Weather   `json:"-"`
	CurrentClientID int64      `json:"-"`
}

// MarshalInputs serializes the restorable fields of the snapshot.
func (s Snapshot) MarshalInputs() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal snapshot")
	}
	return data, nil
}

// UnmarshalInputs restores a snapshot from a serialized inputs payload.
// Volatile fields are left at their zero values.
func UnmarshalInputs(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, eris.Wrap(err, "model: unmarshal snapshot")
	}
	return s, nil
}

// NewsItem is a single headline from the news provider.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Published string `json:"published,omitempty"`
}

// Weather is the current conditions at a site.
type Weather struct {
	TempC       float64 `json:"temperature_c"`
	WindKmh     float64 `json:"wind_kmh"`
	RainTodayMm float64 `json:"rain_today_mm"`
}

// Geocode is a forward-geocoding result.
type Geocode struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// EnrichmentBundle is the best-effort merge of provider results for a
// site. Any field may be absent; Unavailable records the reason per
// failed provider.
type EnrichmentBundle struct {
	Geocode     *Geocode          `json:"geocode,omitempty"`
	Weather     *Weather          `json:"weather,omitempty"`
	News        []NewsItem        `json:"news"`
	WikiSummary string            `json:"wiki_summary,omitempty"`
	Commentary  string            `json:"commentary,omitempty"`
	Unavailable map[string]string `json:"unavailable,omitempty"`
}
