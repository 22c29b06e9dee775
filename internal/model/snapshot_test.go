package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	s := Snapshot{
		Entity:          "Acme",
		SiteName:        "Lyon",
		Country:         "France",
		City:            "Lyon",
		Lat:             45.75,
		Lon:             4.85,
		Sector:          "agroalimentaire",
		Activity:        "Embouteillage",
		Valuation:       10_000_000,
		SupplierRiskPct: 30,
		ReuseInvest:     true,
		LegalPressure:   50,
		ImageRisk:       40,
		Commentary:      "Exposition forte en été.",
	}

	data, err := s.MarshalInputs()
	require.NoError(t, err)

	restored, err := UnmarshalInputs(data)
	require.NoError(t, err)
	assert.Equal(t, s, restored)
}

func TestSnapshot_VolatileFieldsDropped(t *testing.T) {
	s := Snapshot{
		Entity:          "Acme",
		CurrentClientID: 7,
		News:            []NewsItem{{Title: "drought warning"}},
		Weather:         &Weather{TempC: 31, WindKmh: 12, RainTodayMm: 0},
	}

	data, err := s.MarshalInputs()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "drought warning")
	assert.NotContains(t, string(data), "temperature_c")
	assert.NotContains(t, string(data), "current_client")

	restored, err := UnmarshalInputs(data)
	require.NoError(t, err)
	assert.Nil(t, restored.News)
	assert.Nil(t, restored.Weather)
	assert.Zero(t, restored.CurrentClientID)
	assert.Equal(t, "Acme", restored.Entity)
}

func TestSnapshot_LegacyFieldNames(t *testing.T) {
	// Payload written by the historical desk.
	payload := `{"entreprise":"Acme","ville":"Paris","pays":"France","lat":48.8566,"lon":2.3522,"secteur":"Agroalimentaire (100%)","valo":1000000,"fournisseurs_risque":10,"invest_reuse":false,"pression_legale":20,"risque_image":15}`

	s, err := UnmarshalInputs([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "Acme", s.Entity)
	assert.Equal(t, "Paris", s.City)
	assert.InDelta(t, 1.0, CoefficientFor(s.Sector), 1e-9)
}

func TestSite_Unlocated(t *testing.T) {
	assert.True(t, Site{}.Unlocated())
	assert.False(t, Site{Lat: 48.85, Lon: 2.35}.Unlocated())
}
