package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bizray/registry-cli/internal/db"
	"github.com/bizray/registry-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id               TEXT PRIMARY KEY,
	fnr              TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	legal_form       TEXT NOT NULL DEFAULT '',
	business_purpose TEXT NOT NULL DEFAULT '',
	seat             TEXT NOT NULL DEFAULT '',
	euid             TEXT NOT NULL DEFAULT '',
	reference_date   TIMESTAMPTZ,
	risk_score       DOUBLE PRECISION,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS addresses (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL UNIQUE REFERENCES companies(id) ON DELETE CASCADE,
	street       TEXT NOT NULL DEFAULT '',
	house_number TEXT NOT NULL DEFAULT '',
	postal_code  TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	country      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS partners (
	id             TEXT PRIMARY KEY,
	company_id     TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	name           TEXT NOT NULL DEFAULT '',
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	birth_date     TIMESTAMPTZ,
	role           TEXT NOT NULL DEFAULT '',
	representation TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS registry_entries (
	id               TEXT PRIMARY KEY,
	company_id       TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	entry_type       TEXT NOT NULL DEFAULT '',
	court            TEXT NOT NULL DEFAULT '',
	file_number      TEXT NOT NULL DEFAULT '',
	application_date TIMESTAMPTZ,
	registered_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS risk_indicators (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(company_id, key)
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_addresses_lookup ON addresses(street, house_number, postal_code, city);
CREATE INDEX IF NOT EXISTS idx_partners_name ON partners(last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_registry_entries_company ON registry_entries(company_id);
CREATE INDEX IF NOT EXISTS idx_risk_indicators_company ON risk_indicators(company_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertCompany(ctx context.Context, c model.Company) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var companyID string
	err = tx.QueryRow(ctx,
		`INSERT INTO companies (id, fnr, name, legal_form, business_purpose, seat, euid, reference_date, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (fnr) DO UPDATE SET
			name = EXCLUDED.name,
			legal_form = EXCLUDED.legal_form,
			business_purpose = EXCLUDED.business_purpose,
			seat = EXCLUDED.seat,
			euid = EXCLUDED.euid,
			reference_date = EXCLUDED.reference_date,
			updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		uuid.New().String(), c.Firmenbuchnummer, c.Name, c.LegalForm, c.BusinessPurpose,
		c.Seat, c.EUID, c.ReferenceDate, time.Now().UTC(),
	).Scan(&companyID)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert company %s", c.Firmenbuchnummer)
	}

	for _, table := range []string{"addresses", "partners", "registry_entries"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE company_id = $1`, companyID); err != nil {
			return eris.Wrapf(err, "postgres: clear %s", table)
		}
	}

	if c.Address != nil && !c.Address.Empty() {
		_, err = tx.Exec(ctx,
			`INSERT INTO addresses (id, company_id, street, house_number, postal_code, city, country)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), companyID, c.Address.Street, c.Address.HouseNumber,
			c.Address.PostalCode, c.Address.City, c.Address.Country,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert address")
		}
	}

	for _, p := range c.Partners {
		_, err = tx.Exec(ctx,
			`INSERT INTO partners (id, company_id, name, first_name, last_name, birth_date, role, representation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New().String(), companyID, p.Name, p.FirstName, p.LastName,
			p.BirthDate, p.Role, p.Representation,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert partner")
		}
	}

	for _, e := range c.RegistryEntries {
		_, err = tx.Exec(ctx,
			`INSERT INTO registry_entries (id, company_id, entry_type, court, file_number, application_date, registered_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), companyID, e.Type, e.Court, e.FileNumber,
			e.ApplicationDate, e.RegisteredAt,
		)
		if err != nil {
			return eris.Wrap(err, "postgres: insert registry entry")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, fnr string) (*model.Company, error) {
	var (
		companyID string
		c         model.Company
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, fnr, name, legal_form, business_purpose, seat, euid, reference_date, risk_score
		 FROM companies WHERE fnr = $1`,
		fnr,
	).Scan(&companyID, &c.Firmenbuchnummer, &c.Name, &c.LegalForm, &c.BusinessPurpose,
		&c.Seat, &c.EUID, &c.ReferenceDate, &c.RiskScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", fnr)
	}

	var addr model.Address
	err = s.pool.QueryRow(ctx,
		`SELECT street, house_number, postal_code, city, country FROM addresses WHERE company_id = $1`,
		companyID,
	).Scan(&addr.Street, &addr.HouseNumber, &addr.PostalCode, &addr.City, &addr.Country)
	switch {
	case err == nil:
		c.Address = &addr
	case errors.Is(err, pgx.ErrNoRows):
		// no address on record
	default:
		return nil, eris.Wrapf(err, "postgres: get address %s", fnr)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT name, first_name, last_name, birth_date, role, representation
		 FROM partners WHERE company_id = $1 ORDER BY last_name, first_name`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get partners %s", fnr)
	}
	for rows.Next() {
		var p model.Partner
		if err := rows.Scan(&p.Name, &p.FirstName, &p.LastName, &p.BirthDate, &p.Role, &p.Representation); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan partner")
		}
		c.Partners = append(c.Partners, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate partners")
	}

	rows, err = s.pool.Query(ctx,
		`SELECT entry_type, court, file_number, application_date, registered_at
		 FROM registry_entries WHERE company_id = $1 ORDER BY registered_at`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get registry entries %s", fnr)
	}
	for rows.Next() {
		var e model.RegistryEntry
		if err := rows.Scan(&e.Type, &e.Court, &e.FileNumber, &e.ApplicationDate, &e.RegisteredAt); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan registry entry")
		}
		c.RegistryEntries = append(c.RegistryEntries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate registry entries")
	}

	rows, err = s.pool.Query(ctx,
		`SELECT key, value FROM risk_indicators WHERE company_id = $1`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get risk indicators %s", fnr)
	}
	for rows.Next() {
		var (
			key   string
			value float64
		)
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "postgres: scan risk indicator")
		}
		if c.RiskIndicators == nil {
			c.RiskIndicators = make(map[string]float64)
		}
		c.RiskIndicators[key] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate risk indicators")
	}

	return &c, nil
}

func (s *PostgresStore) ListCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT fnr FROM companies ORDER BY fnr`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var fnrs []string
	for rows.Next() {
		var fnr string
		if err := rows.Scan(&fnr); err != nil {
			return nil, eris.Wrap(err, "postgres: scan fnr")
		}
		fnrs = append(fnrs, fnr)
	}
	return fnrs, eris.Wrap(rows.Err(), "postgres: iterate companies")
}

func (s *PostgresStore) SearchCompanies(ctx context.Context, query string, limit int) ([]model.CompanySummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fnr, name, legal_form, business_purpose, seat FROM companies
		 WHERE name ILIKE '%' || $1 || '%' OR fnr ILIKE '%' || $1 || '%'
		 ORDER BY name LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: search %q", query)
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "postgres")
}

func (s *PostgresStore) SuggestCompanies(ctx context.Context, query string, limit int) ([]model.Suggestion, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT fnr, name FROM companies
		 WHERE name ILIKE $1 || '%' OR fnr ILIKE $1 || '%'
		 ORDER BY name LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: suggest %q", query)
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var sg model.Suggestion
		if err := rows.Scan(&sg.Firmenbuchnummer, &sg.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suggestion")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate suggestions")
}

func (s *PostgresStore) SaveRiskResult(ctx context.Context, fnr string, indicators map[string]float64, score *float64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var companyID string
	err = tx.QueryRow(ctx,
		`UPDATE companies SET risk_score = $1, updated_at = $2 WHERE fnr = $3 RETURNING id`,
		score, time.Now().UTC(), fnr,
	).Scan(&companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return eris.Errorf("company not found: %s", fnr)
		}
		return eris.Wrapf(err, "postgres: update risk score %s", fnr)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM risk_indicators WHERE company_id = $1`, companyID); err != nil {
		return eris.Wrap(err, "postgres: clear risk indicators")
	}
	now := time.Now().UTC()
	for key, value := range indicators {
		_, err = tx.Exec(ctx,
			`INSERT INTO risk_indicators (id, company_id, key, value, computed_at) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), companyID, key, value, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert risk indicator %s", key)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit")
	}
	return nil
}

func (s *PostgresStore) CompaniesAtAddress(ctx context.Context, addr model.Address, excludeFNR string) ([]model.CompanySummary, error) {
	if addr.Empty() {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT c.fnr, c.name, c.legal_form, c.business_purpose, c.seat
		 FROM companies c JOIN addresses a ON a.company_id = c.id
		 WHERE a.street = $1 AND a.house_number = $2 AND a.postal_code = $3 AND a.city = $4
		   AND c.fnr <> $5
		 ORDER BY c.name`,
		addr.Street, addr.HouseNumber, addr.PostalCode, addr.City, excludeFNR,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: companies at address")
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "postgres")
}

func (s *PostgresStore) CompaniesWithPartner(ctx context.Context, p model.Partner, excludeFNR string) ([]model.CompanySummary, error) {
	if p.FirstName == "" && p.LastName == "" {
		return nil, nil
	}
	query := `SELECT DISTINCT c.fnr, c.name, c.legal_form, c.business_purpose, c.seat
		 FROM companies c JOIN partners p ON p.company_id = c.id
		 WHERE p.first_name = $1 AND p.last_name = $2 AND c.fnr <> $3`
	args := []any{p.FirstName, p.LastName, excludeFNR}
	if p.BirthDate != nil {
		query += ` AND p.birth_date = $4`
		args = append(args, p.BirthDate)
	}
	query += ` ORDER BY c.name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: companies with partner")
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "postgres")
}

func (s *PostgresStore) Metrics(ctx context.Context) (*model.Metrics, error) {
	var m model.Metrics
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM companies),
			(SELECT count(*) FROM addresses),
			(SELECT count(*) FROM partners),
			(SELECT count(*) FROM registry_entries)`,
	).Scan(&m.Companies, &m.Addresses, &m.Partners, &m.RegistryEntries)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: metrics")
	}
	return &m, nil
}

// scanSummaries drains a five-column summary result set. Both drivers share
// the same projection so the scan loop lives here once.
func scanSummaries(next func() bool, scan func(...any) error, rowsErr func() error, driver string) ([]model.CompanySummary, error) {
	var out []model.CompanySummary
	for next() {
		var cs model.CompanySummary
		if err := scan(&cs.Firmenbuchnummer, &cs.Name, &cs.LegalForm, &cs.BusinessPurpose, &cs.Seat); err != nil {
			return nil, eris.Wrapf(err, "%s: scan company summary", driver)
		}
		out = append(out, cs)
	}
	return out, eris.Wrapf(rowsErr(), "%s: iterate company summaries", driver)
}
