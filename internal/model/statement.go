package model

import "time"

// FinancialStatement is a single parsed balance-sheet snapshot from a
// filed Urkunde document. Every monetary field is optional: the
// producer sets a field to nil when it could not find the position in
// the source document, and consumers must treat nil and absent
// identically. Statements are immutable once produced.
type FinancialStatement struct {
	Assets            BalanceAssets      `json:"assets"`
	LiabilitiesEquity BalanceLiabilities `json:"liabilities_equity"`
	IncomeStatement   IncomeStatement    `json:"income_statement"`
	FiscalYear        FiscalYear         `json:"fiscal_year"`
	Currency          string             `json:"currency,omitempty"`
	Notes             map[string]string  `json:"notes,omitempty"`
}

// BalanceAssets holds the Aktiva positions (HGB paragraph 224 Abs 2).
type BalanceAssets struct {
	TotalAssets               *float64 `json:"total_assets,omitempty"`
	FixedAssets               *float64 `json:"fixed_assets,omitempty"`
	IntangibleAssets          *float64 `json:"intangible_assets,omitempty"`
	TangibleAssets            *float64 `json:"tangible_assets,omitempty"`
	FinancialAssets           *float64 `json:"financial_assets,omitempty"`
	CurrentAssets             *float64 `json:"current_assets,omitempty"`
	Inventories               *float64 `json:"inventories,omitempty"`
	ReceivablesAndOtherAssets *float64 `json:"receivables_and_other_assets,omitempty"`
	Securities                *float64 `json:"securities,omitempty"`
	CashAndCashEquivalents    *float64 `json:"cash_and_cash_equivalents,omitempty"`
	PrepaidExpenses           *float64 `json:"prepaid_expenses,omitempty"`
	ActiveDeferredTaxes       *float64 `json:"active_deferred_taxes,omitempty"`
}

// BalanceLiabilities holds the Passiva positions (HGB paragraph 224 Abs 3).
type BalanceLiabilities struct {
	TotalLiabilitiesAndEquity *float64 `json:"total_liabilities_and_equity,omitempty"`
	Equity                    *float64 `json:"equity,omitempty"`
	SubscribedCapital         *float64 `json:"subscribed_capital,omitempty"`
	CapitalReserves           *float64 `json:"capital_reserves,omitempty"`
	RevenueReserves           *float64 `json:"revenue_reserves,omitempty"`
	NetProfitLoss             *float64 `json:"net_profit_loss,omitempty"`
	Liabilities               *float64 `json:"liabilities,omitempty"`
	DeferredIncome            *float64 `json:"deferred_income,omitempty"`
	PassiveDeferredTaxes      *float64 `json:"passive_deferred_taxes,omitempty"`
}

// IncomeStatement holds the income positions used for growth indicators.
type IncomeStatement struct {
	Revenue   *float64 `json:"revenue,omitempty"`
	NetIncome *float64 `json:"net_income,omitempty"`
}

// FiscalYear is the reporting period of a statement.
type FiscalYear struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
