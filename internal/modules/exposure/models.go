// Package exposure computes the consolidated view of true underlying
// exposure across a set of ETF positions: portfolio-level statistics
// plus normalized, sorted breakdowns by holding and by sector.
//
// All functions here are pure: they never suspend, never touch the
// network, and are recomputed from scratch whenever the position set
// changes.
package exposure

import (
	"strings"

	"github.com/aristath/fundlens/internal/clients/alphavantage"
)

// Position is the engine-facing view of one portfolio position.
// A position contributes to the aggregates iff its profile resolved
// without error; pending and failed positions simply do not participate.
type Position struct {
	Symbol  string
	Equity  float64
	Profile *alphavantage.ETFProfile
	Failed  bool
}

// contributes reports whether this position participates in aggregation.
func (p Position) contributes() bool {
	return p.Profile != nil && !p.Failed
}

// HoldingKey identifies a merged holding: either a known symbol, or the
// cash/other bucket that providers report with placeholder symbols
// (empty, "N/A", "-").
type HoldingKey struct {
	CashOrOther bool
	Symbol      string
}

// cashTicker is the synthetic ticker for the cash/other bucket.
const cashTicker = "CASH"

// cashDescription is the display name for the cash/other bucket.
const cashDescription = "Cash / Other Assets"

// holdingKeyFor classifies a provider-supplied holding symbol.
func holdingKeyFor(symbol string) HoldingKey {
	s := strings.TrimSpace(symbol)
	switch strings.ToUpper(s) {
	case "", "N/A", "-":
		return HoldingKey{CashOrOther: true}
	}
	return HoldingKey{Symbol: s}
}

// Ticker returns the canonical ticker for this key.
func (k HoldingKey) Ticker() string {
	if k.CashOrOther {
		return cashTicker
	}
	return k.Symbol
}

// AggregatedHolding is one row of the by-holding breakdown.
type AggregatedHolding struct {
	Ticker             string  `json:"ticker"`
	Name               string  `json:"name"`
	AssetClass         string  `json:"asset_class"`
	TotalValue         float64 `json:"total_value"`
	PercentOfPortfolio float64 `json:"percent_of_portfolio"`
}

// AggregatedSector is one row of the by-sector breakdown.
type AggregatedSector struct {
	Name               string  `json:"name"`
	TotalValue         float64 `json:"total_value"`
	PercentOfPortfolio float64 `json:"percent_of_portfolio"`
}

// PortfolioStats holds portfolio-level figures over contributing
// positions. Recomputed from scratch on every change, never maintained
// incrementally.
type PortfolioStats struct {
	TotalEquity               float64 `json:"total_equity"`
	AverageExpenseRatio       float64 `json:"average_expense_ratio"`
	AverageDividendYield      float64 `json:"average_dividend_yield"`
	TotalAnnualExpenseCost    float64 `json:"total_annual_expense_cost"`
	TotalAnnualDividendIncome float64 `json:"total_annual_dividend_income"`
	HasUsableData             bool    `json:"has_usable_data"`
}
