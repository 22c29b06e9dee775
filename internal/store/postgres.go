package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/aquarisk/workbench/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool, for desks that share one
// database between analysts.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id            BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	sector        TEXT NOT NULL DEFAULT '',
	date_creation TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sites (
	id        BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	client_id BIGINT NOT NULL REFERENCES clients(id),
	name      TEXT NOT NULL,
	country   TEXT NOT NULL DEFAULT '',
	city      TEXT NOT NULL DEFAULT '',
	lat       DOUBLE PRECISION NOT NULL DEFAULT 0,
	lon       DOUBLE PRECISION NOT NULL DEFAULT 0,
	activity  TEXT NOT NULL DEFAULT '',
	UNIQUE (client_id, name)
);

CREATE TABLE IF NOT EXISTS audits (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	site_id      BIGINT NOT NULL REFERENCES sites(id),
	date         TEXT NOT NULL,
	score_global DOUBLE PRECISION NOT NULL,
	valo         DOUBLE PRECISION NOT NULL,
	inputs_json  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sites_client_id ON sites(client_id);
CREATE INDEX IF NOT EXISTS idx_audits_site_date ON audits(site_id, date DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateClient(ctx context.Context, name, sector string) (*model.Client, error) {
	now := time.Now()

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO clients (name, sector, date_creation) VALUES ($1, $2, $3) RETURNING id`,
		name, sector, now.Format(dateLayout),
	).Scan(&id)
	if err != nil {
		if isPostgresConflict(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: client %q", name)
		}
		return nil, eris.Wrap(err, "postgres: insert client")
	}

	return &model.Client{ID: id, Name: name, Sector: sector, CreatedAt: now}, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, sector, date_creation FROM clients WHERE id = $1`, id,
	)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: client %d", id)
	}
	return c, err
}

func (s *PostgresStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, sector, date_creation FROM clients ORDER BY name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clients")
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
	return clients, eris.Wrap(rows.Err(), "postgres: list clients iterate")
}

func (s *PostgresStore) CreateSite(ctx context.Context, site model.Site) (*model.Site, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sites (client_id, name, country, city, lat, lon, activity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		site.ClientID, site.Name, site.Country, site.City, site.Lat, site.Lon, site.Activity,
	).Scan(&site.ID)
	if err != nil {
		if isPostgresConflict(err) {
			return nil, eris.Wrapf(ErrDuplicate, "postgres: site %q for client %d", site.Name, site.ClientID)
		}
		return nil, eris.Wrap(err, "postgres: insert site")
	}
	return &site, nil
}

func (s *PostgresStore) GetSite(ctx context.Context, id int64) (*model.Site, error) {
	var site model.Site
	err := s.pool.QueryRow(ctx,
		`SELECT id, client_id, name, country, city, lat, lon, activity FROM sites WHERE id = $1`, id,
	).Scan(&site.ID, &site.ClientID, &site.Name, &site.Country, &site.City, &site.Lat, &site.Lon, &site.Activity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: site %d", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan site")
	}
	return &site, nil
}

func (s *PostgresStore) ListSites(ctx context.Context, clientID int64) ([]model.Site, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, name, country, city, lat, lon, activity FROM sites WHERE client_id = $1 ORDER BY name ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sites")
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.ClientID, &site.Name, &site.Country, &site.City, &site.Lat, &site.Lon, &site.Activity); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site")
		}
		sites = append(sites, site)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: list sites iterate")
}

func (s *PostgresStore) ListAllSites(ctx context.Context) ([]model.SiteWithClient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.client_id, s.name, s.country, s.city, s.lat, s.lon, s.activity, c.name, c.sector
		FROM sites s
		JOIN clients c ON c.id = s.client_id
		ORDER BY c.name ASC, s.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list all sites")
	}
	defer rows.Close()

	var sites []model.SiteWithClient
	for rows.Next() {
		var sw model.SiteWithClient
		if err := rows.Scan(&sw.ID, &sw.ClientID, &sw.Name, &sw.Country, &sw.City, &sw.Lat, &sw.Lon, &sw.Activity, &sw.ClientName, &sw.ClientSector); err != nil {
			return nil, eris.Wrap(err, "postgres: scan site with client")
		}
		sites = append(sites, sw)
	}
	return sites, eris.Wrap(rows.Err(), "postgres: list all sites iterate")
}

func (s *PostgresStore) SaveAudit(ctx context.Context, siteID int64, scoreGlobal, valuation float64, inputs []byte) (*model.Audit, error) {
	now := time.Now().Truncate(time.Minute)

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audits (site_id, date, score_global, valo, inputs_json) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		siteID, now.Format(auditLayout), scoreGlobal, valuation, string(inputs),
	).Scan(&id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert audit")
	}

	return &model.Audit{ID: id, SiteID: siteID, Date: now, ScoreGlobal: scoreGlobal, Valuation: valuation}, nil
}

func (s *PostgresStore) ListAudits(ctx context.Context, siteID int64) ([]model.Audit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, site_id, date, score_global, valo FROM audits WHERE site_id = $1 ORDER BY date DESC, id DESC`,
		siteID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list audits")
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
	return audits, eris.Wrap(rows.Err(), "postgres: list audits iterate")
}

func (s *PostgresStore) LoadAudit(ctx context.Context, auditID int64) (*model.Audit, []byte, error) {
	var a model.Audit
	var dateStr, inputs string
	err := s.pool.QueryRow(ctx,
		`SELECT id, site_id, date, score_global, valo, inputs_json FROM audits WHERE id = $1`,
		auditID,
	).Scan(&a.ID, &a.SiteID, &dateStr, &a.ScoreGlobal, &a.Valuation, &inputs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, eris.Wrapf(ErrNotFound, "postgres: audit %d", auditID)
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: scan audit")
	}
	a.Date, err = time.ParseInLocation(auditLayout, dateStr, time.Local)
	if err != nil {
		return nil, nil, eris.Wrap(err, "postgres: parse audit date")
	}
	return &a, []byte(inputs), nil
}

func (s *PostgresStore) Portfolio(ctx context.Context) ([]model.PortfolioRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.id, s.client_id, s.name, s.country, s.city, s.lat, s.lon, s.activity,
		       c.name, c.sector,
		       a.date, a.score_global, a.valo
		FROM sites s
		JOIN clients c ON c.id = s.client_id
		LEFT JOIN LATERAL (
			SELECT date, score_global, valo FROM audits
			WHERE site_id = s.id ORDER BY date DESC, id DESC LIMIT 1
		) a ON true
		ORDER BY c.name ASC, s.name ASC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: portfolio")
	}
	defer rows.Close()

	var out []model.PortfolioRow
	for rows.Next() {
		var r model.PortfolioRow
		var dateStr sql.NullString
		var score, valo sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.ClientID, &r.Name, &r.Country, &r.City, &r.Lat, &r.Lon, &r.Activity,
			&r.ClientName, &r.ClientSector, &dateStr, &score, &valo); err != nil {
			return nil, eris.Wrap(err, "postgres: scan portfolio row")
		}
		if dateStr.Valid {
			d, err := time.ParseInLocation(auditLayout, dateStr.String, time.Local)
			if err != nil {
				return nil, eris.Wrap(err, "postgres: parse portfolio date")
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
	return out, eris.Wrap(rows.Err(), "postgres: portfolio iterate")
}

// isPostgresConflict reports whether err is a unique_violation.
func isPostgresConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
