// Package session holds the working snapshot between desk operations.
//
// A SessionContext is the single mutator of the snapshot: selections,
// enrichment merges and audit save/load all go through it, so the
// scoring engine can stay pure and the storage layer append-only.
package session

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/aquarisk/workbench/internal/model"
	"github.com/aquarisk/workbench/internal/scoring"
	"github.com/aquarisk/workbench/internal/store"
)

// ErrInput reports a rejected user input. Callers detect it with
// eris.Is.
var ErrInput = eris.New("invalid input")

// SessionContext is the working context of one desk operator.
type SessionContext struct {
	store    store.Store
	snapshot model.Snapshot

	currentSiteID int64
}

// New returns a session initialized with the default snapshot.
func New(st store.Store) *SessionContext {
	return &SessionContext{store: st, snapshot: Defaults()}
}

// Defaults is the initial working snapshot of a fresh session.
func Defaults() model.Snapshot {
	return model.Snapshot{
		Entity:  "Nouvelle Entreprise",
		City:    "Paris",
		Country: "France",
		Lat:     48.8566,
		Lon:     2.3522,
		Sector:  "Agroalimentaire",
	}
}

// Snapshot returns a copy of the working snapshot.
func (s *SessionContext) Snapshot() model.Snapshot {
	return s.snapshot
}

// CurrentSiteID returns the selected site id, 0 when none is selected.
func (s *SessionContext) CurrentSiteID() int64 {
	return s.currentSiteID
}

// Reset restores the default snapshot and clears the selection.
func (s *SessionContext) Reset() {
	s.snapshot = Defaults()
	s.currentSiteID = 0
}

// SelectClient loads the client and folds its identity into the working
// snapshot. The site selection is cleared.
func (s *SessionContext) SelectClient(ctx context.Context, clientID int64) error {
	c, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return eris.Wrap(err, "session: select client")
	}
	s.snapshot.Entity = c.Name
	s.snapshot.Sector = c.Sector
	s.snapshot.CurrentClientID = c.ID
	s.currentSiteID = 0
	return nil
}

// SelectSite loads the site and folds its location into the working
// snapshot. The owning client is selected as a side effect.
func (s *SessionContext) SelectSite(ctx context.Context, siteID int64) error {
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return eris.Wrap(err, "session: select site")
	}
	if s.snapshot.CurrentClientID != site.ClientID {
		c, err := s.store.GetClient(ctx, site.ClientID)
		if err != nil {
			return eris.Wrap(err, "session: select site client")
		}
		s.snapshot.Entity = c.Name
		s.snapshot.Sector = c.Sector
		s.snapshot.CurrentClientID = c.ID
	}
	s.snapshot.SiteName = site.Name
	s.snapshot.Country = site.Country
	s.snapshot.City = site.City
	s.snapshot.Lat = site.Lat
	s.snapshot.Lon = site.Lon
	s.snapshot.Activity = site.Activity
	s.snapshot.Unlocated = site.Unlocated()
	s.currentSiteID = site.ID
	return nil
}

// SetValuation updates the valuation. Negative values are rejected.
func (s *SessionContext) SetValuation(v float64) error {
	if v < 0 {
		return eris.Wrap(ErrInput, "session: negative valuation")
	}
	s.snapshot.Valuation = v
	return nil
}

// SetSector updates the sector. The value may be a catalog key, a label,
// or a legacy "Label (NN%)" string; anything else is rejected.
func (s *SessionContext) SetSector(sector string) error {
	if _, ok := model.ResolveSector(sector); !ok {
		return eris.Wrapf(ErrInput, "session: unknown sector %q", sector)
	}
	s.snapshot.Sector = sector
	return nil
}

// SetParameters updates the analyst pressure dials, both in [0, 100].
func (s *SessionContext) SetParameters(legalPressure, imageRisk float64) error {
	if legalPressure < 0 || legalPressure > 100 {
		return eris.Wrap(ErrInput, "session: legal pressure out of range")
	}
	if imageRisk < 0 || imageRisk > 100 {
		return eris.Wrap(ErrInput, "session: image risk out of range")
	}
	s.snapshot.LegalPressure = legalPressure
	s.snapshot.ImageRisk = imageRisk
	return nil
}

// SetSupplierRisk updates the share of suppliers in water-stressed
// areas, in [0, 100].
func (s *SessionContext) SetSupplierRisk(pct float64) error {
	if pct < 0 || pct > 100 {
		return eris.Wrap(ErrInput, "session: supplier risk out of range")
	}
	s.snapshot.SupplierRiskPct = pct
	return nil
}

// SetReuseInvest updates the water-reuse investment flag.
func (s *SessionContext) SetReuseInvest(v bool) {
	s.snapshot.ReuseInvest = v
}

// Score evaluates the working snapshot.
func (s *SessionContext) Score() scoring.Result {
	return scoring.Score(
		scoring.Inputs{
			Lat:             s.snapshot.Lat,
			Sector:          s.snapshot.Sector,
			SupplierRiskPct: s.snapshot.SupplierRiskPct,
			ReuseInvest:     s.snapshot.ReuseInvest,
			Valuation:       s.snapshot.Valuation,
		},
		scoring.Parameters{
			LegalPressure: s.snapshot.LegalPressure,
			ImageRisk:     s.snapshot.ImageRisk,
		},
	)
}

// ApplyBundle merges enrichment results into the working snapshot.
// Absent bundle fields leave the snapshot untouched.
func (s *SessionContext) ApplyBundle(b *model.EnrichmentBundle) {
	if b == nil {
		return
	}
	if b.Geocode != nil {
		s.snapshot.Lat = b.Geocode.Lat
		s.snapshot.Lon = b.Geocode.Lon
		s.snapshot.Unlocated = b.Geocode.Lat == 0 && b.Geocode.Lon == 0
	}
	if b.Weather != nil {
		s.snapshot.Weather = b.Weather
	}
	if len(b.News) > 0 {
		s.snapshot.News = b.News
	}
	if b.Commentary != "" {
		s.snapshot.Commentary = b.Commentary
	}
}

// SaveAudit scores the working snapshot and appends it to the selected
// site's history.
func (s *SessionContext) SaveAudit(ctx context.Context) (*model.Audit, error) {
	if s.currentSiteID == 0 {
		return nil, eris.Wrap(ErrInput, "session: no site selected")
	}
	inputs, err := s.snapshot.MarshalInputs()
	if err != nil {
		return nil, eris.Wrap(err, "session: save audit")
	}
	res := s.Score()
	audit, err := s.store.SaveAudit(ctx, s.currentSiteID, res.Global, s.snapshot.Valuation, inputs)
	if err != nil {
		return nil, eris.Wrap(err, "session: save audit")
	}
	return audit, nil
}

// LoadAudit replaces the working snapshot with a stored one. Volatile
// fields reset; the audited site becomes the selection.
func (s *SessionContext) LoadAudit(ctx context.Context, auditID int64) error {
	audit, inputs, err := s.store.LoadAudit(ctx, auditID)
	if err != nil {
		return eris.Wrap(err, "session: load audit")
	}
	snap, err := model.UnmarshalInputs(inputs)
	if err != nil {
		return eris.Wrap(err, "session: load audit")
	}
	s.snapshot = snap
	s.currentSiteID = audit.SiteID
	return nil
}
