package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/aquarisk/workbench/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The shared
// *sql.DB handle is safe across goroutines; WAL mode and a busy timeout
// let readers overlap the single writer.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Migrations are additive only: the base schema plus ALTERs guarded by
// IF NOT EXISTS / duplicate-column tolerance in migrateSQLite.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	sector        TEXT NOT NULL DEFAULT '',
	date_creation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sites (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id INTEGER NOT NULL REFERENCES clients(id),
	name      TEXT NOT NULL,
	country   TEXT NOT NULL DEFAULT '',
	city      TEXT NOT NULL DEFAULT '',
	lat       REAL NOT NULL DEFAULT 0,
	lon       REAL NOT NULL DEFAULT 0,
	activity  TEXT NOT NULL DEFAULT '',
	UNIQUE (client_id, name)
);

CREATE TABLE IF NOT EXISTS audits (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id      INTEGER NOT NULL REFERENCES sites(id),
	date         TEXT NOT NULL,
	score_global REAL NOT NULL,
	valo         REAL NOT NULL,
	inputs_json  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sites_client_id ON sites(client_id);
CREATE INDEX IF NOT EXISTS idx_audits_site_id ON audits(site_id);
CREATE INDEX IF NOT EXISTS idx_audits_site_date ON audits(site_id, date DESC);
`

// additiveColumns lists columns added after the base schema shipped.
// ALTER TABLE ADD COLUMN fails when the column exists; that error is
// tolerated so the migration stays idempotent.
var additiveColumns = []string{
	`ALTER TABLE sites ADD COLUMN activity TEXT NOT NULL DEFAULT ''`,
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, stmt := range additiveColumns {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return eris.Wrapf(err, "sqlite: migrate %s", stmt)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateClient(ctx context.Context, name, sector string) (*model.Client, error) {
	now := time.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (name, sector, date_creation) VALUES (?, ?, ?)`,
		name, sector, now.Format(dateLayout),
	)
	if err != nil {
		if isSQLiteConflict(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: client %q", name)
		}
		return nil, eris.Wrap(err, "sqlite: insert client")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: client id")
	}

	return &model.Client{ID: id, Name: name, Sector: sector, CreatedAt: now}, nil
}

func (s *SQLiteStore) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, sector, date_creation FROM clients WHERE id = ?`, id,
	)
	return scanClient(row)
}

func (s *SQLiteStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, sector, date_creation FROM clients ORDER BY name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, eris.Wrap(rows.Err(), "sqlite: list clients iterate")
}

func (s *SQLiteStore) CreateSite(ctx context.Context, site model.Site) (*model.Site, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sites (client_id, name, country, city, lat, lon, activity) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		site.ClientID, site.Name, site.Country, site.City, site.Lat, site.Lon, site.Activity,
	)
	if err != nil {
		if isSQLiteConflict(err) {
			return nil, eris.Wrapf(ErrDuplicate, "sqlite: site %q for client %d", site.Name, site.ClientID)
		}
		return nil, eris.Wrap(err, "sqlite: insert site")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: site id")
	}
	site.ID = id
	return &site, nil
}

func (s *SQLiteStore) GetSite(ctx context.Context, id int64) (*model.Site, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client_id, name, country, city, lat, lon, activity FROM sites WHERE id = ?`, id,
	)
	var site model.Site
	err := row.Scan(&site.ID, &site.ClientID, &site.Name, &site.Country, &site.City, &site.Lat, &site.Lon, &site.Activity)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: site %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan site")
	}
	return &site, nil
}

func (s *SQLiteStore) ListSites(ctx context.Context, clientID int64) ([]model.Site, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, name, country, city, lat, lon, activity FROM sites WHERE client_id = ? ORDER BY name ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sites")
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.ClientID, &site.Name, &site.Country, &site.City, &site.Lat, &site.Lon, &site.Activity); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site")
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "sqlite: list sites iterate")
}

func (s *SQLiteStore) ListAllSites(ctx context.Context) ([]model.SiteWithClient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.client_id, s.name, s.country, s.city, s.lat, s.lon, s.activity, c.name, c.sector
		FROM sites s
		JOIN clients c ON c.id = s.client_id
		ORDER BY c.name ASC, s.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list all sites")
	}
	defer rows.Close()

	var sites []model.SiteWithClient
	for rows.Next() {
		var sw model.SiteWithClient
		if err := rows.Scan(&sw.ID, &sw.ClientID, &sw.Name, &sw.Country, &sw.City, &sw.Lat, &sw.Lon, &sw.Activity, &sw.ClientName, &sw.ClientSector); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan site with client")
		}
		sites = append(sites, sw)
	}
	return sites, eris.Wrap(rows.Err(), "sqlite: list all sites iterate")
}

func (s *SQLiteStore) SaveAudit(ctx context.Context, siteID int64, scoreGlobal, valuation float64, inputs []byte) (*model.Audit, error) {
	now := time.Now().Truncate(time.Minute)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audits (site_id, date, score_global, valo, inputs_json) VALUES (?, ?, ?, ?, ?)`,
		siteID, now.Format(auditLayout), scoreGlobal, valuation, string(inputs),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert audit")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: audit id")
	}

	return &model.Audit{ID: id, SiteID: siteID, Date: now, ScoreGlobal: scoreGlobal, Valuation: valuation}, nil
}

func (s *SQLiteStore) ListAudits(ctx context.Context, siteID int64) ([]model.Audit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, date, score_global, valo FROM audits WHERE site_id = ? ORDER BY date DESC, id DESC`,
		siteID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list audits")
	}
	defer rows.Close()

	var audits []model.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, eris.Wrap(rows.Err(), "sqlite: list audits iterate")
}

func (s *SQLiteStore) LoadAudit(ctx context.Context, auditID int64) (*model.Audit, []byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, site_id, date, score_global, valo, inputs_json FROM audits WHERE id = ?`,
		auditID,
	)

	var a model.Audit
	var dateStr, inputs string
	err := row.Scan(&a.ID, &a.SiteID, &dateStr, &a.ScoreGlobal, &a.Valuation, &inputs)
	if err == sql.ErrNoRows {
		return nil, nil, eris.Wrapf(ErrNotFound, "sqlite: audit %d", auditID)
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: scan audit")
	}
	a.Date, err = time.ParseInLocation(auditLayout, dateStr, time.Local)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: parse audit date")
	}
	return &a, []byte(inputs), nil
}

func (s *SQLiteStore) Portfolio(ctx context.Context) ([]model.PortfolioRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.client_id, s.name, s.country, s.city, s.lat, s.lon, s.activity,
		       c.name, c.sector,
		       a.date, a.score_global, a.valo
		FROM sites s
		JOIN clients c ON c.id = s.client_id
		LEFT JOIN audits a ON a.id = (
			SELECT id FROM audits WHERE site_id = s.id ORDER BY date DESC, id DESC LIMIT 1
		)
		ORDER BY c.name ASC, s.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: portfolio")
	}
	defer rows.Close()

	var out []model.PortfolioRow
	for rows.Next() {
		var r model.PortfolioRow
		var dateStr sql.NullString
		var score, valo sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Name, &r.Country, &r.City, &r.Lat, &r.Lon, &r.Activity,
			&r.ClientName, &r.ClientSector, &dateStr, &score, &valo); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan portfolio row")
		}
		if dateStr.Valid {
			d, err := time.ParseInLocation(auditLayout, dateStr.String, time.Local)
			if err != nil {
				return nil, eris.Wrap(err, "sqlite: parse portfolio date")
			}
			r.LastAuditDate = &d
		}
		if score.Valid {
			r.LastScore = &score.Float64
		}
		if valo.Valid {
			r.LastValuation = &valo.Float64
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: portfolio iterate")
}

// isSQLiteConflict reports whether err is a UNIQUE constraint violation.
func isSQLiteConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
