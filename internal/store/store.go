// Package store persists clients, sites and audit snapshots.
//
// Two backends implement Store: an embedded single-file SQLite store
// (the default) and a Postgres store for shared desks. Audit history is
// append-only; snapshots are never updated or deleted.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/aquarisk/workbench/internal/model"
)

// Business errors. Callers detect them with eris.Is.
var (
	// ErrDuplicate reports an insert that collides with an existing
	// client name or (client, site) pair.
	ErrDuplicate = eris.New("duplicate")

	// ErrNotFound reports a lookup for a row that does not exist.
	ErrNotFound = eris.New("not found")
)

// Store defines the persistence contract for the workbench.
type Store interface {
	// Clients
	CreateClient(ctx context.Context, name, sector string) (*model.Client, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)

	// Sites
	CreateSite(ctx context.Context, site model.Site) (*model.Site, error)
	GetSite(ctx context.Context, id int64) (*model.Site, error)
	ListSites(ctx context.Context, clientID int64) ([]model.Site, error)
	ListAllSites(ctx context.Context) ([]model.SiteWithClient, error)

	// Audits (append-only)
	SaveAudit(ctx context.Context, siteID int64, scoreGlobal, valuation float64, inputs []byte) (*model.Audit, error)
	ListAudits(ctx context.Context, siteID int64) ([]model.Audit, error)
	LoadAudit(ctx context.Context, auditID int64) (*model.Audit, []byte, error)

	// Portfolio view: every site joined with its client and latest audit.
	Portfolio(ctx context.Context) ([]model.PortfolioRow, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Timestamp layouts of the persisted TEXT columns.
const (
	dateLayout  = "2006-01-02"
	auditLayout = "2006-01-02 15:04"
)

// scannable abstracts *sql.Row, *sql.Rows and pgx.Row for the shared
// scan helpers below.
type scannable interface {
	Scan(dest ...any) error
}

func scanClient(row scannable) (*model.Client, error) {
	var c model.Client
	var dateStr string
	err := row.Scan(&c.ID, &c.Name, &c.Sector, &dateStr)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "store: client")
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan client")
	}
	c.CreatedAt, err = time.ParseInLocation(dateLayout, dateStr, time.Local)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse client date")
	}
	return &c, nil
}

func scanAudit(row scannable) (*model.Audit, error) {
	var a model.Audit
	var dateStr string
	err := row.Scan(&a.ID, &a.SiteID, &dateStr, &a.ScoreGlobal, &a.Valuation)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan audit")
	}
	a.Date, err = time.ParseInLocation(auditLayout, dateStr, time.Local)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse audit date")
	}
	return &a, nil
}
