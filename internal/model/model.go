// Package model defines the domain entities shared across the workbench.
package model

import "time"

// Client is a customer organization under audit.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector"`
	CreatedAt time.Time `json:"created_at"`
}

// Site is a geolocated physical facility belonging to a client.
type Site struct {
	ID       int64   `json:"id"`
	ClientID int64   `json:"client_id"`
	Name     string  `json:"name"`
	Country  string  `json:"country"`
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Activity string  `json:"activity"`
}

// Unlocated reports whether the site has no resolved coordinates.
// Unresolved geocoding persists (0, 0).
func (s Site) Unlocated() bool {
	return s.Lat == 0 && s.Lon == 0
}

// SiteWithClient joins a site with its owning client for portfolio views.
type SiteWithClient struct {
	Site
	ClientName   string `json:"client_name"`
	ClientSector string `json:"client_sector"`
}

// Audit is the header row of an immutable audit snapshot.
// The serialized inputs live in the audits table alongside these columns.
type Audit struct {
	ID          int64     `json:"id"`
	SiteID      int64     `json:"site_id"`
	Date        time.Time `json:"date"`
	ScoreGlobal float64   `json:"score_global"`
	Valuation   float64   `json:"valuation"`
}

// PortfolioRow is one line of the portfolio view: a site joined with its
// client and the most recent audit, if any.
type PortfolioRow struct {
	SiteWithClient
	LastAuditDate *time.Time `json:"last_audit_date,omitempty"`
	LastScore     *float64   `json:"last_score,omitempty"`
	LastValuation *float64   `json:"last_valuation,omitempty"`
}
