package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bizray/registry-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. An empty DSN opens
// an in-memory database, which is what the tests use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
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

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id               TEXT PRIMARY KEY,
	fnr              TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	legal_form       TEXT NOT NULL DEFAULT '',
	business_purpose TEXT NOT NULL DEFAULT '',
	seat             TEXT NOT NULL DEFAULT '',
	euid             TEXT NOT NULL DEFAULT '',
	reference_date   DATETIME,
	risk_score       REAL,
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
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
	birth_date     DATETIME,
	role           TEXT NOT NULL DEFAULT '',
	representation TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS registry_entries (
	id               TEXT PRIMARY KEY,
	company_id       TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	entry_type       TEXT NOT NULL DEFAULT '',
	court            TEXT NOT NULL DEFAULT '',
	file_number      TEXT NOT NULL DEFAULT '',
	application_date DATETIME,
	registered_at    DATETIME
);

CREATE TABLE IF NOT EXISTS risk_indicators (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
	key         TEXT NOT NULL,
	value       REAL NOT NULL,
	computed_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(company_id, key)
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_addresses_lookup ON addresses(street, house_number, postal_code, city);
CREATE INDEX IF NOT EXISTS idx_partners_name ON partners(last_name, first_name);
CREATE INDEX IF NOT EXISTS idx_registry_entries_company ON registry_entries(company_id);
CREATE INDEX IF NOT EXISTS idx_risk_indicators_company ON risk_indicators(company_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c model.Company) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (id, fnr, name, legal_form, business_purpose, seat, euid, reference_date, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(fnr) DO UPDATE SET
			name = excluded.name,
			legal_form = excluded.legal_form,
			business_purpose = excluded.business_purpose,
			seat = excluded.seat,
			euid = excluded.euid,
			reference_date = excluded.reference_date,
			updated_at = excluded.updated_at`,
		uuid.New().String(), c.Firmenbuchnummer, c.Name, c.LegalForm, c.BusinessPurpose,
		c.Seat, c.EUID, c.ReferenceDate, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert company %s", c.Firmenbuchnummer)
	}

	var companyID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM companies WHERE fnr = ?`, c.Firmenbuchnummer).Scan(&companyID); err != nil {
		return eris.Wrapf(err, "sqlite: resolve company id %s", c.Firmenbuchnummer)
	}

	for _, table := range []string{"addresses", "partners", "registry_entries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE company_id = ?`, companyID); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	if c.Address != nil && !c.Address.Empty() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO addresses (id, company_id, street, house_number, postal_code, city, country)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, c.Address.Street, c.Address.HouseNumber,
			c.Address.PostalCode, c.Address.City, c.Address.Country,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert address")
		}
	}

	for _, p := range c.Partners {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO partners (id, company_id, name, first_name, last_name, birth_date, role, representation)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, p.Name, p.FirstName, p.LastName,
			p.BirthDate, p.Role, p.Representation,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert partner")
		}
	}

	for _, e := range c.RegistryEntries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO registry_entries (id, company_id, entry_type, court, file_number, application_date, registered_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, e.Type, e.Court, e.FileNumber,
			e.ApplicationDate, e.RegisteredAt,
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: insert registry entry")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, fnr string) (*model.Company, error) {
	var (
		companyID string
		c         model.Company
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fnr, name, legal_form, business_purpose, seat, euid, reference_date, risk_score
		 FROM companies WHERE fnr = ?`,
		fnr,
	).Scan(&companyID, &c.Firmenbuchnummer, &c.Name, &c.LegalForm, &c.BusinessPurpose,
		&c.Seat, &c.EUID, &c.ReferenceDate, &c.RiskScore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", fnr)
	}

	var addr model.Address
	err = s.db.QueryRowContext(ctx,
		`SELECT street, house_number, postal_code, city, country FROM addresses WHERE company_id = ?`,
		companyID,
	).Scan(&addr.Street, &addr.HouseNumber, &addr.PostalCode, &addr.City, &addr.Country)
	switch {
	case err == nil:
		c.Address = &addr
	case errors.Is(err, sql.ErrNoRows):
		// no address on record
	default:
		return nil, eris.Wrapf(err, "sqlite: get address %s", fnr)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, first_name, last_name, birth_date, role, representation
		 FROM partners WHERE company_id = ? ORDER BY last_name, first_name`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get partners %s", fnr)
	}
	for rows.Next() {
		var p model.Partner
		if err := rows.Scan(&p.Name, &p.FirstName, &p.LastName, &p.BirthDate, &p.Role, &p.Representation); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan partner")
		}
		c.Partners = append(c.Partners, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate partners")
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT entry_type, court, file_number, application_date, registered_at
		 FROM registry_entries WHERE company_id = ? ORDER BY registered_at`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get registry entries %s", fnr)
	}
	for rows.Next() {
		var e model.RegistryEntry
		if err := rows.Scan(&e.Type, &e.Court, &e.FileNumber, &e.ApplicationDate, &e.RegisteredAt); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan registry entry")
		}
		c.RegistryEntries = append(c.RegistryEntries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate registry entries")
	}

	rows, err = s.db.QueryContext(ctx, `SELECT key, value FROM risk_indicators WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get risk indicators %s", fnr)
	}
	for rows.Next() {
		var (
			key   string
			value float64
		)
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "sqlite: scan risk indicator")
		}
		if c.RiskIndicators == nil {
			c.RiskIndicators = make(map[string]float64)
		}
		c.RiskIndicators[key] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate risk indicators")
	}

	return &c, nil
}

func (s *SQLiteStore) ListCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fnr FROM companies ORDER BY fnr`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var fnrs []string
	for rows.Next() {
		var fnr string
		if err := rows.Scan(&fnr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fnr")
		}
		fnrs = append(fnrs, fnr)
	}
	return fnrs, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) SearchCompanies(ctx context.Context, query string, limit int) ([]model.CompanySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fnr, name, legal_form, business_purpose, seat FROM companies
		 WHERE name LIKE '%' || ? || '%' COLLATE NOCASE OR fnr LIKE '%' || ? || '%' COLLATE NOCASE
		 ORDER BY name LIMIT ?`,
		query, query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: search %q", query)
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "sqlite")
}

func (s *SQLiteStore) SuggestCompanies(ctx context.Context, query string, limit int) ([]model.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fnr, name FROM companies
		 WHERE name LIKE ? || '%' COLLATE NOCASE OR fnr LIKE ? || '%' COLLATE NOCASE
		 ORDER BY name LIMIT ?`,
		query, query, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: suggest %q", query)
	}
	defer rows.Close()

	var out []model.Suggestion
	for rows.Next() {
		var sg model.Suggestion
		if err := rows.Scan(&sg.Firmenbuchnummer, &sg.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suggestion")
		}
		out = append(out, sg)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate suggestions")
}

func (s *SQLiteStore) SaveRiskResult(ctx context.Context, fnr string, indicators map[string]float64, score *float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`UPDATE companies SET risk_score = ?, updated_at = ? WHERE fnr = ?`,
		score, time.Now().UTC(), fnr,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update risk score %s", fnr)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if affected == 0 {
		return eris.Errorf("company not found: %s", fnr)
	}

	var companyID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM companies WHERE fnr = ?`, fnr).Scan(&companyID); err != nil {
		return eris.Wrapf(err, "sqlite: resolve company id %s", fnr)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM risk_indicators WHERE company_id = ?`, companyID); err != nil {
		return eris.Wrap(err, "sqlite: clear risk indicators")
	}
	now := time.Now().UTC()
	for key, value := range indicators {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO risk_indicators (id, company_id, key, value, computed_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), companyID, key, value, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert risk indicator %s", key)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) CompaniesAtAddress(ctx context.Context, addr model.Address, excludeFNR string) ([]model.CompanySummary, error) {
	if addr.Empty() {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.fnr, c.name, c.legal_form, c.business_purpose, c.seat
		 FROM companies c JOIN addresses a ON a.company_id = c.id
		 WHERE a.street = ? AND a.house_number = ? AND a.postal_code = ? AND a.city = ?
		   AND c.fnr <> ?
		 ORDER BY c.name`,
		addr.Street, addr.HouseNumber, addr.PostalCode, addr.City, excludeFNR,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: companies at address")
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "sqlite")
}

func (s *SQLiteStore) CompaniesWithPartner(ctx context.Context, p model.Partner, excludeFNR string) ([]model.CompanySummary, error) {
	if p.FirstName == "" && p.LastName == "" {
		return nil, nil
	}
	query := `SELECT DISTINCT c.fnr, c.name, c.legal_form, c.business_purpose, c.seat
		 FROM companies c JOIN partners p ON p.company_id = c.id
		 WHERE p.first_name = ? AND p.last_name = ? AND c.fnr <> ?`
	args := []any{p.FirstName, p.LastName, excludeFNR}
	if p.BirthDate != nil {
		query += ` AND p.birth_date = ?`
		args = append(args, p.BirthDate)
	}
	query += ` ORDER BY c.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: companies with partner")
	}
	defer rows.Close()
	return scanSummaries(rows.Next, rows.Scan, rows.Err, "sqlite")
}

func (s *SQLiteStore) Metrics(ctx context.Context) (*model.Metrics, error) {
	var m model.Metrics
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT count(*) FROM companies),
			(SELECT count(*) FROM addresses),
			(SELECT count(*) FROM partners),
			(SELECT count(*) FROM registry_entries)`,
	).Scan(&m.Companies, &m.Addresses, &m.Partners, &m.RegistryEntries)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: metrics")
	}
	return &m, nil
}
