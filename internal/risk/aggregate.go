package risk

import (
	"sort"
	"time"

	"github.com/bizray/registry-cli/internal/model"
)

// Indicator keys are a fixed, versioned vocabulary. Downstream
// renderers key off these names, so renaming one is a breaking change.
const (
	KeyDebtToEquity           = "debt_to_equity_ratio"
	KeyConcentrationRisk      = "concentration_risk"
	KeyBalanceSheetVolatility = "balance_sheet_volatility"
	KeyCashRatio              = "cash_ratio"
	KeyDebtToAssets           = "debt_to_assets_ratio"
	KeyEquityRatio            = "equity_ratio"
	KeyRevenueGrowth          = "growth_revenue"
	KeyProfitGrowth           = "operational_result_profit"
	KeyDeferredIncomeReliance = "deferred_income_reliance"
	KeyIrregularFiscalYear    = "irregular_fiscal_year"
	KeyComplianceStatus       = "compliance_status"
)

// Keys lists the full indicator vocabulary in rendering order.
var Keys = []string{
	KeyDebtToEquity,
	KeyConcentrationRisk,
	KeyBalanceSheetVolatility,
	KeyCashRatio,
	KeyDebtToAssets,
	KeyEquityRatio,
	KeyRevenueGrowth,
	KeyProfitGrowth,
	KeyDeferredIncomeReliance,
	KeyIrregularFiscalYear,
	KeyComplianceStatus,
}

// Set maps every indicator key to its value. Flag-style indicators are
// stored as 0 or 1; nil marks an indicator that could not be computed
// from the available inputs. All keys are always present so consumers
// can distinguish "computed low risk" from "not available".
type Set map[string]*float64

// Score aggregates a set into a single scalar: the arithmetic mean of
// all computed values. Summation runs in sorted key order so identical
// sets always produce the bit-identical float. The second return is
// false when no indicator was computable at all.
func (s Set) Score() (float64, bool) {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum float64
	var n int
	for _, k := range keys {
		v := s[k]
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Indicators computes the full indicator set for the latest financial
// statement of a company. The historical slice must be ordered oldest
// reference period first (SelectLatest produces this ordering); its
// first element serves as the previous period for growth and
// volatility indicators. Filing entries feed the compliance check,
// evaluated as of asOf.
//
// The computation is pure: missing inputs degrade single indicators to
// nil, never to an error, and identical inputs always produce an
// identical set.
func Indicators(latest *model.FinancialStatement, historical []model.FinancialStatement, filings []Filing, asOf time.Time) Set {
	set := make(Set, len(Keys))
	for _, k := range Keys {
		set[k] = nil
	}
	if latest == nil {
		return set
	}

	assets := latest.Assets
	le := latest.LiabilitiesEquity

	if le.Equity != nil && le.Liabilities != nil {
		set[KeyDebtToEquity] = DebtToEquity(*le.Equity, *le.Liabilities)
	}
	if assets.ReceivablesAndOtherAssets != nil && assets.TotalAssets != nil {
		set[KeyConcentrationRisk] = ConcentrationRisk(*assets.ReceivablesAndOtherAssets, *assets.TotalAssets)
	}
	if le.DeferredIncome != nil && le.Equity != nil && le.Liabilities != nil {
		set[KeyDeferredIncomeReliance] = fromFlag(DeferredIncomeReliance(*le.DeferredIncome, *le.Equity+*le.Liabilities))
	}
	if assets.CashAndCashEquivalents != nil && le.Liabilities != nil {
		set[KeyCashRatio] = CashRatio(*assets.CashAndCashEquivalents, *le.Liabilities)
	}
	if le.Liabilities != nil && assets.TotalAssets != nil {
		set[KeyDebtToAssets] = DebtToAssets(*le.Liabilities, *assets.TotalAssets)
	}
	if le.Equity != nil && assets.TotalAssets != nil {
		set[KeyEquityRatio] = EquityRatio(*le.Equity, *assets.TotalAssets)
	}

	if prev := previousStatement(historical); prev != nil {
		if assets.TotalAssets != nil && prev.Assets.TotalAssets != nil {
			set[KeyBalanceSheetVolatility] = BalanceSheetVolatility(*assets.TotalAssets, *prev.Assets.TotalAssets)
		}
		cur, old := latest.IncomeStatement, prev.IncomeStatement
		if cur.Revenue != nil && old.Revenue != nil {
			set[KeyRevenueGrowth] = RevenueGrowth(*cur.Revenue, *old.Revenue)
		}
		if cur.NetIncome != nil && old.NetIncome != nil {
			set[KeyProfitGrowth] = ProfitGrowth(*cur.NetIncome, *old.NetIncome)
		}
	}

	fy := latest.FiscalYear
	if fy.StartDate != nil && fy.EndDate != nil {
		if irregular, err := IrregularFiscalYear(*fy.StartDate, *fy.EndDate); err == nil {
			set[KeyIrregularFiscalYear] = fromFlag(&irregular)
		}
	}

	set[KeyComplianceStatus] = fromFlag(ComplianceStatus(filings, asOf))

	return set
}

// previousStatement picks the reference period for period-over-period
// indicators: the earliest available historical statement.
func previousStatement(historical []model.FinancialStatement) *model.FinancialStatement {
	if len(historical) == 0 {
		return nil
	}
	return &historical[0]
}

// fromFlag folds a tri-state flag into the set representation: true
// contributes 1, false contributes 0, nil stays unknown.
func fromFlag(b *bool) *float64 {
	if b == nil {
		return nil
	}
	if *b {
		return f64(1)
	}
	return f64(0)
}
