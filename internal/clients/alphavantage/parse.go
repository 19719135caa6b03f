package alphavantage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// parseFloat64 parses provider numeric strings leniently.
// "None", "null", "-" and empty strings are common placeholders; a
// trailing "%" is stripped. Malformed values contribute 0 rather than
// failing the whole response.
func parseFloat64(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "null" || s == "-" {
		return 0
	}
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// etfProfilePayload is the wire shape of an ETF_PROFILE response.
// Every numeric field arrives as a string. Holdings is kept raw so the
// parser can distinguish "absent" and "not a sequence" from "empty".
type etfProfilePayload struct {
	NetAssets         string          `json:"net_assets"`
	NetExpenseRatio   string          `json:"net_expense_ratio"`
	PortfolioTurnover string          `json:"portfolio_turnover"`
	DividendYield     string          `json:"dividend_yield"`
	Holdings          json.RawMessage `json:"holdings"`
	Sectors           []struct {
		Sector string `json:"sector"`
		Weight string `json:"weight"`
	} `json:"sectors"`
}

type holdingPayload struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Weight      string `json:"weight"`
	Assets      string `json:"assets"`
}

// parseETFProfile decodes an ETF_PROFILE body into a normalized profile.
// The caller has already run checkAPIError on the body.
func parseETFProfile(symbol string, body []byte) (*ETFProfile, error) {
	var payload etfProfilePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse ETF profile response: %w", err)
	}

	if len(payload.Holdings) == 0 {
		return nil, ErrNoHoldingData{Symbol: symbol}
	}

	// A null or non-sequence holdings field is no data; an empty
	// sequence decodes to a non-nil slice and stays a valid
	// zero-holding profile.
	var rawHoldings []holdingPayload
	if err := json.Unmarshal(payload.Holdings, &rawHoldings); err != nil || rawHoldings == nil {
		return nil, ErrNoHoldingData{Symbol: symbol}
	}

	holdings := make([]ETFHolding, 0, len(rawHoldings))
	for _, h := range rawHoldings {
		holdings = append(holdings, ETFHolding{
			Symbol:      h.Symbol,
			Description: h.Description,
			Weight:      parseFloat64(h.Weight),
			AssetClass:  h.Assets,
		})
	}

	sectors := make([]SectorWeight, 0, len(payload.Sectors))
	for _, s := range payload.Sectors {
		sectors = append(sectors, SectorWeight{
			Sector: s.Sector,
			Weight: parseFloat64(s.Weight),
		})
	}

	return &ETFProfile{
		Symbol:            symbol,
		Name:              symbol, // enriched later via SYMBOL_SEARCH, best effort
		NetAssets:         parseFloat64(payload.NetAssets),
		PortfolioTurnover: parseFloat64(payload.PortfolioTurnover),
		NetExpenseRatio:   parseFloat64(payload.NetExpenseRatio),
		DividendYield:     parseFloat64(payload.DividendYield),
		Holdings:          holdings,
		Sectors:           sectors,
	}, nil
}

// parseSymbolSearch decodes a SYMBOL_SEARCH body. The provider uses
// numbered keys ("1. symbol", "2. name", ...) in each match.
func parseSymbolSearch(body []byte) ([]SymbolMatch, error) {
	var payload struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse symbol search response: %w", err)
	}

	matches := make([]SymbolMatch, 0, len(payload.BestMatches))
	for _, m := range payload.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:     m["1. symbol"],
			Name:       m["2. name"],
			Type:       m["3. type"],
			Region:     m["4. region"],
			Currency:   m["8. currency"],
			MatchScore: parseFloat64(m["9. matchScore"]),
		})
	}

	return matches, nil
}
