// Package risk implements the financial risk indicator engine for
// Firmenbuch companies: per-indicator ratio calculators, compliance and
// fiscal-year checks, aggregation into a composite score, and a
// content-addressed result cache.
package risk

import "math"

// Each calculator is a pure function over monetary amounts in a single
// currency. A nil result means the indicator could not be computed from
// the given inputs; callers must never substitute zero for nil.
// Magnitude-style scores are clamped into [0,1], 0 = low risk.

// DebtToEquity scores leverage as 1/(1+equity/liabilities). Returns nil
// when liabilities are not strictly positive.
func DebtToEquity(equity, liabilities float64) *float64 {
	if liabilities <= 0 {
		return nil
	}
	return f64(clamp01(1 / (1 + equity/liabilities)))
}

// ConcentrationRisk scores the share of total assets tied up in
// receivables from affiliated companies. Returns nil when total assets
// are not strictly positive.
func ConcentrationRisk(receivables, totalAssets float64) *float64 {
	if totalAssets <= 0 {
		return nil
	}
	return f64(clamp01(receivables / totalAssets))
}

// BalanceSheetVolatility scores the period-over-period change of a
// balance sheet position: min(1, |pct change|/50). A zero previous
// value with a zero current value scores 0; a zero previous value with
// a nonzero current value is not computable.
func BalanceSheetVolatility(current, previous float64) *float64 {
	if previous == 0 {
		if current == 0 {
			return f64(0)
		}
		return nil
	}
	pct := (current - previous) / previous * 100
	return f64(math.Min(1, math.Abs(pct)/50))
}

// CashRatio scores cash coverage of liabilities as
// 1/(1+cash/liabilities). Returns nil when liabilities are exactly zero.
func CashRatio(cash, liabilities float64) *float64 {
	if liabilities == 0 {
		return nil
	}
	return f64(clamp01(1 / (1 + cash/liabilities)))
}

// DebtToAssets scores liabilities as a share of total assets. Returns
// nil when total assets are not strictly positive.
func DebtToAssets(liabilities, totalAssets float64) *float64 {
	if totalAssets <= 0 {
		return nil
	}
	return f64(clamp01(liabilities / totalAssets))
}

// EquityRatio scores the inverse equity share, 1 - equity/assets.
// Returns nil when total assets are not strictly positive.
func EquityRatio(equity, totalAssets float64) *float64 {
	if totalAssets <= 0 {
		return nil
	}
	return f64(clamp01(1 - equity/totalAssets))
}

// RevenueGrowth scores revenue shrinkage: growth at or above zero is no
// risk, shrinkage scales as min(1, |growth|/0.5). Zero-previous rules
// match BalanceSheetVolatility.
func RevenueGrowth(current, previous float64) *float64 {
	return growthScore(current, previous)
}

// ProfitGrowth applies the RevenueGrowth formula to net income.
func ProfitGrowth(current, previous float64) *float64 {
	return growthScore(current, previous)
}

func growthScore(current, previous float64) *float64 {
	if previous == 0 {
		if current == 0 {
			return f64(0)
		}
		return nil
	}
	growth := (current - previous) / previous
	if growth >= 0 {
		return f64(0)
	}
	return f64(math.Min(1, math.Abs(growth)/0.5))
}

// DeferredIncomeReliance flags companies funded at least 50% by
// customers paying upfront. Total funding is equity plus liabilities;
// returns nil when it is not strictly positive.
func DeferredIncomeReliance(deferredIncome, totalFunding float64) *bool {
	if totalFunding <= 0 {
		return nil
	}
	b := deferredIncome/totalFunding >= 0.5
	return &b
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func f64(v float64) *float64 {
	return &v
}
