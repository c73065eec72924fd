package risk

import (
	"sort"

	"github.com/bizray/registry-cli/internal/model"
)

// SelectLatest splits a company's financial statements into the current
// basis and its historical context. The external document listing is
// append-ordered and not guaranteed chronological, so the statements
// are re-sorted by fiscal-year end date, ascending, before the last
// element is taken as current. Statements without an end date sort
// before dated ones and keep their relative input order.
//
// The returned historical slice is ordered oldest reference period
// first; growth and volatility indicators compare against its first
// element.
func SelectLatest(statements []model.FinancialStatement) (*model.FinancialStatement, []model.FinancialStatement) {
	if len(statements) == 0 {
		return nil, nil
	}

	sorted := make([]model.FinancialStatement, len(statements))
	copy(sorted, statements)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].FiscalYear.EndDate, sorted[j].FiscalYear.EndDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return a.Before(*b)
		}
	})

	latest := sorted[len(sorted)-1]
	return &latest, sorted[:len(sorted)-1]
}
