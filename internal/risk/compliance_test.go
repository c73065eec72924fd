package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizray/registry-cli/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datep(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestIrregularFiscalYear(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{name: "standard calendar year", start: date(2023, 1, 1), end: date(2023, 12, 31), want: false},
		{name: "eleven month year", start: date(2023, 1, 1), end: date(2023, 11, 30), want: true},
		{name: "single month", start: date(2023, 1, 1), end: date(2023, 1, 31), want: true},
		{name: "shifted full year", start: date(2022, 7, 1), end: date(2023, 6, 30), want: false},
		{name: "one day short of eleven whole months", start: date(2023, 1, 15), end: date(2023, 12, 14), want: true},
		{name: "exactly eleven whole months", start: date(2023, 1, 15), end: date(2023, 12, 15), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := IrregularFiscalYear(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing date errors", func(t *testing.T) {
		t.Parallel()
		_, err := IrregularFiscalYear(time.Time{}, date(2023, 12, 31))
		assert.ErrorIs(t, err, ErrMissingDate)
		_, err = IrregularFiscalYear(date(2023, 1, 1), time.Time{})
		assert.ErrorIs(t, err, ErrMissingDate)
	})
}

func filings(entries ...model.RegistryEntry) []Filing {
	out := make([]Filing, len(entries))
	for i, e := range entries {
		out[i] = e
	}
	return out
}

func TestComplianceStatus(t *testing.T) {
	t.Parallel()

	asOf := date(2024, 1, 1)

	t.Run("recent filing is compliant", func(t *testing.T) {
		t.Parallel()
		got := ComplianceStatus(filings(
			model.RegistryEntry{Type: "Neueintragung", RegisteredAt: datep(2022, 1, 10)},
			model.RegistryEntry{Type: "Jahresabschluss 2022", RegisteredAt: datep(2023, 5, 15)},
		), asOf)
		require.NotNil(t, got)
		assert.True(t, *got)
	})

	t.Run("stale filings are not compliant", func(t *testing.T) {
		t.Parallel()
		got := ComplianceStatus(filings(
			model.RegistryEntry{Type: "Neueintragung", RegisteredAt: datep(2020, 3, 3)},
			model.RegistryEntry{Type: "Jahresabschluss 2020", RegisteredAt: datep(2021, 5, 20)},
		), asOf)
		require.NotNil(t, got)
		assert.False(t, *got)
	})

	t.Run("empty filing list is not compliant", func(t *testing.T) {
		t.Parallel()
		got := ComplianceStatus(nil, asOf)
		require.NotNil(t, got)
		assert.False(t, *got)
	})

	t.Run("only undated filings is unknown", func(t *testing.T) {
		t.Parallel()
		got := ComplianceStatus(filings(
			model.RegistryEntry{Type: "Angekündigt"},
		), asOf)
		assert.Nil(t, got)
	})

	t.Run("undated entries do not invalidate dated ones", func(t *testing.T) {
		t.Parallel()
		got := ComplianceStatus(filings(
			model.RegistryEntry{Type: "Angekündigt"},
			model.RegistryEntry{Type: "Jahresabschluss", RegisteredAt: datep(2023, 5, 15)},
		), asOf)
		require.NotNil(t, got)
		assert.True(t, *got)
	})

	t.Run("exactly 548 days is compliant", func(t *testing.T) {
		t.Parallel()
		reg := asOf.AddDate(0, 0, -548)
		got := ComplianceStatus(filings(model.RegistryEntry{RegisteredAt: &reg}), asOf)
		require.NotNil(t, got)
		assert.True(t, *got)
	})

	t.Run("549 days is not compliant", func(t *testing.T) {
		t.Parallel()
		reg := asOf.AddDate(0, 0, -549)
		got := ComplianceStatus(filings(model.RegistryEntry{RegisteredAt: &reg}), asOf)
		require.NotNil(t, got)
		assert.False(t, *got)
	})
}

// adapterFiling exercises the accessor contract with a non-model
// representation, the way a row adapter from another source would.
type adapterFiling struct {
	registered *time.Time
}

func (a adapterFiling) RegistrationDate() *time.Time {
	return a.registered
}

func TestComplianceStatus_AcceptsAdapters(t *testing.T) {
	t.Parallel()

	got := ComplianceStatus([]Filing{adapterFiling{registered: datep(2023, 8, 1)}}, date(2024, 1, 1))
	require.NotNil(t, got)
	assert.True(t, *got)
}
