package alphavantage

// ETFProfile is the normalized result of an ETF_PROFILE query.
// Immutable once constructed; cached entries and positions share it.
type ETFProfile struct {
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	NetAssets         float64        `json:"net_assets"`
	PortfolioTurnover float64        `json:"portfolio_turnover"`
	NetExpenseRatio   float64        `json:"net_expense_ratio"` // fraction, e.g. 0.0009
	DividendYield     float64        `json:"dividend_yield"`    // fraction
	Holdings          []ETFHolding   `json:"holdings"`
	Sectors           []SectorWeight `json:"sectors"`
}

// ETFHolding is one underlying asset inside a fund's basket.
// Symbol may be empty or a provider placeholder ("N/A", "-") for cash
// and other non-security assets.
type ETFHolding struct {
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"` // fraction of the fund, provider-supplied
	AssetClass  string  `json:"asset_class"`
}

// SectorWeight is a fund's declared weight in one sector.
type SectorWeight struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"` // fraction
}

// SymbolMatch is one result of a SYMBOL_SEARCH query.
type SymbolMatch struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Region     string  `json:"region"`
	Currency   string  `json:"currency"`
	MatchScore float64 `json:"match_score"`
}
