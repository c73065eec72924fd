package risk

import (
	"time"

	"github.com/rotisserie/eris"
)

// ErrMissingDate is returned when a temporal check is invoked without
// the dates it requires.
var ErrMissingDate = eris.New("risk: fiscal year date missing")

// filingRecencyDays is the maximum age of the most recent registry
// filing for a company to count as compliant (~18 months).
const filingRecencyDays = 548

// minRegularFiscalMonths is the shortest whole-month span that still
// counts as a regular fiscal year.
const minRegularFiscalMonths = 11

// Filing is the minimal view of a registry filing the compliance check
// needs. model.RegistryEntry satisfies it directly; other record
// representations plug in through small adapters so the check never
// branches on the concrete source type.
type Filing interface {
	RegistrationDate() *time.Time
}

// IrregularFiscalYear reports whether the period from start to end
// spans fewer than 11 whole months. Both dates are required; a zero
// date yields ErrMissingDate rather than a silent default.
func IrregularFiscalYear(start, end time.Time) (bool, error) {
	if start.IsZero() || end.IsZero() {
		return false, ErrMissingDate
	}
	return wholeMonths(start, end) < minRegularFiscalMonths, nil
}

// wholeMonths counts fully elapsed calendar months between two dates.
func wholeMonths(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

// ComplianceStatus reports whether a company's most recent registry
// filing is recent enough as of the given date. The result is
// tri-state:
//
//   - false for an empty filing list (no history is non-compliant, not
//     unknown)
//   - nil when entries exist but none carries a registration date
//   - otherwise true iff the most recent registration date lies within
//     548 days of asOf, the boundary day inclusive
func ComplianceStatus(filings []Filing, asOf time.Time) *bool {
	if len(filings) == 0 {
		return boolp(false)
	}

	var latest *time.Time
	for _, f := range filings {
		d := f.RegistrationDate()
		if d == nil {
			continue
		}
		if latest == nil || d.After(*latest) {
			latest = d
		}
	}
	if latest == nil {
		return nil
	}

	compliant := !latest.AddDate(0, 0, filingRecencyDays).Before(asOf)
	return boolp(compliant)
}

func boolp(b bool) *bool {
	return &b
}
