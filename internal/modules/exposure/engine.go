package exposure

import (
	"sort"
)

// ComputeStats calculates portfolio-level statistics over positions
// with a resolved, error-free profile. Averages are equity-weighted;
// when total equity is zero both averages are exactly zero.
func ComputeStats(positions []Position) PortfolioStats {
	var stats PortfolioStats
	var weightedExpense, weightedYield float64
	contributors := 0

	for _, pos := range positions {
		if !pos.contributes() {
			continue
		}
		contributors++
		stats.TotalEquity += pos.Equity
		weightedExpense += pos.Profile.NetExpenseRatio * pos.Equity
		weightedYield += pos.Profile.DividendYield * pos.Equity
	}

	stats.TotalAnnualExpenseCost = weightedExpense
	stats.TotalAnnualDividendIncome = weightedYield
	if stats.TotalEquity > 0 {
		stats.AverageExpenseRatio = weightedExpense / stats.TotalEquity
		stats.AverageDividendYield = weightedYield / stats.TotalEquity
	}
	stats.HasUsableData = contributors > 0

	return stats
}

// holdingAccumulator is the running merge state for one holding key.
type holdingAccumulator struct {
	key         HoldingKey
	description string
	assetClass  string
	totalValue  float64
}

// AggregateHoldings merges every contributing position's holdings into
// a single breakdown keyed by canonical symbol. Placeholder symbols
// collapse into the CASH bucket. Later non-empty descriptions and asset
// classes overwrite earlier ones; empty values never overwrite a prior
// non-empty value.
//
// Output is sorted by total value descending; equal values keep the
// order in which their key was first seen during the merge, so the
// result is deterministic (and idempotent) for a given input order.
func AggregateHoldings(positions []Position) []AggregatedHolding {
	merged := make(map[HoldingKey]*holdingAccumulator)
	var order []*holdingAccumulator
	var totalEquity float64

	for _, pos := range positions {
		if !pos.contributes() {
			continue
		}
		totalEquity += pos.Equity

		for _, h := range pos.Profile.Holdings {
			key := holdingKeyFor(h.Symbol)

			description := h.Description
			if key.CashOrOther {
				description = cashDescription
			}

			acc, ok := merged[key]
			if !ok {
				acc = &holdingAccumulator{key: key}
				merged[key] = acc
				order = append(order, acc)
			}

			acc.totalValue += pos.Equity * h.Weight
			if description != "" {
				acc.description = description
			}
			if h.AssetClass != "" {
				acc.assetClass = h.AssetClass
			}
		}
	}

	result := make([]AggregatedHolding, 0, len(order))
	for _, acc := range order {
		name := acc.description
		if name == "" {
			name = acc.key.Ticker()
		}

		var pct float64
		if totalEquity > 0 {
			pct = acc.totalValue / totalEquity * 100
		}

		result = append(result, AggregatedHolding{
			Ticker:             acc.key.Ticker(),
			Name:               name,
			AssetClass:         acc.assetClass,
			TotalValue:         acc.totalValue,
			PercentOfPortfolio: pct,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalValue > result[j].TotalValue
	})

	return result
}

// sectorAccumulator is the running merge state for one sector name.
type sectorAccumulator struct {
	name       string
	totalValue float64
}

// AggregateSectors merges every contributing position's sector weights,
// keyed by the raw sector name. Unlike holdings there is no placeholder
// remapping: an empty sector name stays its own bucket.
func AggregateSectors(positions []Position) []AggregatedSector {
	merged := make(map[string]*sectorAccumulator)
	var order []*sectorAccumulator
	var totalEquity float64

	for _, pos := range positions {
		if !pos.contributes() {
			continue
		}
		totalEquity += pos.Equity

		for _, s := range pos.Profile.Sectors {
			acc, ok := merged[s.Sector]
			if !ok {
				acc = &sectorAccumulator{name: s.Sector}
				merged[s.Sector] = acc
				order = append(order, acc)
			}
			acc.totalValue += pos.Equity * s.Weight
		}
	}

	result := make([]AggregatedSector, 0, len(order))
	for _, acc := range order {
		var pct float64
		if totalEquity > 0 {
			pct = acc.totalValue / totalEquity * 100
		}
		result = append(result, AggregatedSector{
			Name:               acc.name,
			TotalValue:         acc.totalValue,
			PercentOfPortfolio: pct,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].TotalValue > result[j].TotalValue
	})

	return result
}
