package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizray/registry-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, fnr, name, legal_form`).
		WithArgs("FN 999999x").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCompany(context.Background(), "FN 999999x")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT fnr, name, legal_form, business_purpose, seat FROM companies`).
		WithArgs("muster", 20).
		WillReturnRows(pgxmock.NewRows([]string{"fnr", "name", "legal_form", "business_purpose", "seat"}).
			AddRow("FN 123456a", "Musterfirma GmbH", "GmbH", "Handel", "Wien"))

	got, err := s.SearchCompanies(context.Background(), "muster", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FN 123456a", got[0].Firmenbuchnummer)
	assert.Equal(t, "Musterfirma GmbH", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SuggestCompanies(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT fnr, name FROM companies`).
		WithArgs("Mu", 10).
		WillReturnRows(pgxmock.NewRows([]string{"fnr", "name"}).
			AddRow("FN 123456a", "Musterfirma GmbH").
			AddRow("FN 234567b", "Muster Holding AG"))

	got, err := s.SuggestCompanies(context.Background(), "Mu", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Muster Holding AG", got[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRiskResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE companies SET risk_score`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "FN 999999x").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := s.SaveRiskResult(context.Background(), "FN 999999x", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRiskResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	score := 0.42
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE companies SET risk_score`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "FN 123456a").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("company-uuid"))
	mock.ExpectExec(`DELETE FROM risk_indicators`).
		WithArgs("company-uuid").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO risk_indicators`).
		WithArgs(pgxmock.AnyArg(), "company-uuid", "equity_ratio", 0.42, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveRiskResult(context.Background(), "FN 123456a", map[string]float64{"equity_ratio": 0.42}, &score)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompaniesAtAddress_EmptyAddress(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	got, err := s.CompaniesAtAddress(context.Background(), model.Address{}, "FN 123456a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresStore_CompaniesWithPartner_NoName(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	got, err := s.CompaniesWithPartner(context.Background(), model.Partner{}, "FN 123456a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostgresStore_Metrics(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(pgxmock.NewRows([]string{"companies", "addresses", "partners", "registry_entries"}).
			AddRow(int64(3), int64(2), int64(5), int64(9)))

	m, err := s.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), m.Companies)
	assert.Equal(t, int64(9), m.RegistryEntries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS companies`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
