// Package store persists company records, their financial filings backlog
// and computed risk results. Two drivers are provided: Postgres via pgx for
// deployments and SQLite via modernc for local work and tests.
package store

import (
	"context"

	"github.com/bizray/registry-cli/internal/model"
)

// Store is the persistence contract used by the CLI commands and the HTTP
// server. Implementations must be safe for concurrent use.
type Store interface {
	// Migrate creates or updates the schema. Safe to call repeatedly.
	Migrate(ctx context.Context) error

	// UpsertCompany writes a company and replaces its dependent rows
	// (address, partners, registry entries) in a single transaction.
	UpsertCompany(ctx context.Context, c model.Company) error

	// GetCompany loads a company by Firmenbuchnummer, including partners,
	// registry entries and the last stored risk result. Returns (nil, nil)
	// when the company is unknown.
	GetCompany(ctx context.Context, fnr string) (*model.Company, error)

	// ListCompanyIDs returns every stored Firmenbuchnummer.
	ListCompanyIDs(ctx context.Context) ([]string, error)

	// SearchCompanies matches name or Firmenbuchnummer, case-insensitive.
	SearchCompanies(ctx context.Context, query string, limit int) ([]model.CompanySummary, error)

	// SuggestCompanies returns prefix-style autocomplete candidates.
	SuggestCompanies(ctx context.Context, query string, limit int) ([]model.Suggestion, error)

	// SaveRiskResult replaces the stored indicator set and score for a
	// company.
	SaveRiskResult(ctx context.Context, fnr string, indicators map[string]float64, score *float64) error

	// CompaniesAtAddress finds other companies registered at the same
	// address. Blank addresses match nothing.
	CompaniesAtAddress(ctx context.Context, addr model.Address, excludeFNR string) ([]model.CompanySummary, error)

	// CompaniesWithPartner finds other companies sharing a partner,
	// matched by first and last name plus birthdate when present.
	CompaniesWithPartner(ctx context.Context, p model.Partner, excludeFNR string) ([]model.CompanySummary, error)

	// Metrics reports row counts for the metrics endpoint.
	Metrics(ctx context.Context) (*model.Metrics, error)

	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
