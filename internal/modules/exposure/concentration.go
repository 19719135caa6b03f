package exposure

import (
	"gonum.org/v1/gonum/floats"
)

// ConcentrationMetrics summarizes how concentrated the aggregated
// portfolio is across its underlying holdings.
type ConcentrationMetrics struct {
	// HHI is the Herfindahl-Hirschman index over covered value,
	// in (0, 1]. 1 means a single holding.
	HHI float64 `json:"hhi"`
	// EffectiveHoldings is 1/HHI: the number of equally-weighted
	// holdings that would produce the same concentration.
	EffectiveHoldings float64 `json:"effective_holdings"`
	// TopTenShare is the fraction of covered value in the ten largest
	// holdings.
	TopTenShare float64 `json:"top_ten_share"`
	// CoveredValue is the dollar value explained by the aggregated
	// holdings. It can be below total equity when provider weights for
	// a fund sum to less than 1.
	CoveredValue float64 `json:"covered_value"`
}

// Concentration computes concentration metrics over an aggregated
// holdings breakdown. Weights are normalized against covered value, not
// total equity, so partial provider coverage does not distort the
// index. Returns the zero value when nothing is covered.
func Concentration(holdings []AggregatedHolding) ConcentrationMetrics {
	if len(holdings) == 0 {
		return ConcentrationMetrics{}
	}

	values := make([]float64, len(holdings))
	for i, h := range holdings {
		values[i] = h.TotalValue
	}

	covered := floats.Sum(values)
	if covered <= 0 {
		return ConcentrationMetrics{}
	}

	weights := make([]float64, len(values))
	for i, v := range values {
		weights[i] = v / covered
	}

	hhi := floats.Dot(weights, weights)

	topN := 10
	if len(weights) < topN {
		topN = len(weights)
	}
	// AggregateHoldings output is already sorted by value descending.
	topTen := floats.Sum(weights[:topN])

	return ConcentrationMetrics{
		HHI:               hhi,
		EffectiveHoldings: 1 / hhi,
		TopTenShare:       topTen,
		CoveredValue:      covered,
	}
}
