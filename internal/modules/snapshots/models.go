// Package snapshots captures point-in-time copies of the aggregated
// exposure view so the portfolio's composition can be compared over
// time. Snapshots are msgpack-encoded blobs in the portfolio database.
package snapshots

import (
	"time"

	"github.com/aristath/fundlens/internal/modules/exposure"
)

// topHoldingsLimit caps how many holdings a snapshot retains. The long
// tail of sub-basis-point holdings adds bulk without telling the reader
// anything about drift.
const topHoldingsLimit = 50

// Snapshot is one captured exposure view.
type Snapshot struct {
	ID       int64                         `json:"id" msgpack:"-"`
	TakenAt  time.Time                     `json:"taken_at" msgpack:"-"`
	Stats    exposure.PortfolioStats       `json:"stats" msgpack:"stats"`
	Holdings []exposure.AggregatedHolding  `json:"holdings" msgpack:"holdings"`
	Sectors  []exposure.AggregatedSector   `json:"sectors" msgpack:"sectors"`
	Metrics  exposure.ConcentrationMetrics `json:"metrics" msgpack:"metrics"`
}

// Capture builds a snapshot from the current aggregates, truncating the
// holdings list. ID and TakenAt are assigned at save time.
func Capture(positions []exposure.Position) Snapshot {
	holdings := exposure.AggregateHoldings(positions)
	metrics := exposure.Concentration(holdings)
	if len(holdings) > topHoldingsLimit {
		holdings = holdings[:topHoldingsLimit]
	}

	return Snapshot{
		Stats:    exposure.ComputeStats(positions),
		Holdings: holdings,
		Sectors:  exposure.AggregateSectors(positions),
		Metrics:  metrics,
	}
}
