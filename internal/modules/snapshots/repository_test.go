package snapshots

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aristath/fundlens/internal/modules/exposure"
)

const testSnapshotsSchema = `
CREATE TABLE exposure_snapshots (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    taken_at INTEGER NOT NULL,
    data     BLOB NOT NULL
);
`

func setupSnapshotsDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSnapshotsSchema)
	require.NoError(t, err)

	return db
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Stats: exposure.PortfolioStats{
			TotalEquity:   15000,
			HasUsableData: true,
		},
		Holdings: []exposure.AggregatedHolding{
			{Ticker: "AAPL", Name: "APPLE INC", AssetClass: "Equity", TotalValue: 1200, PercentOfPortfolio: 8},
			{Ticker: "MSFT", Name: "MICROSOFT CORP", AssetClass: "Equity", TotalValue: 900, PercentOfPortfolio: 6},
		},
		Sectors: []exposure.AggregatedSector{
			{Name: "INFORMATION TECHNOLOGY", TotalValue: 2100, PercentOfPortfolio: 14},
		},
		Metrics: exposure.ConcentrationMetrics{HHI: 0.52, EffectiveHoldings: 1.92, TopTenShare: 1, CoveredValue: 2100},
	}
}

func TestRepositorySaveAndLatest(t *testing.T) {
	repo := NewRepository(setupSnapshotsDB(t))

	saved, err := repo.Save(sampleSnapshot())
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.TakenAt.IsZero())

	latest, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, saved.ID, latest.ID)
	assert.Equal(t, 15000.0, latest.Stats.TotalEquity)
	require.Len(t, latest.Holdings, 2)
	assert.Equal(t, "AAPL", latest.Holdings[0].Ticker)
	assert.Equal(t, 1200.0, latest.Holdings[0].TotalValue)
	require.Len(t, latest.Sectors, 1)
	assert.Equal(t, "INFORMATION TECHNOLOGY", latest.Sectors[0].Name)
	assert.InDelta(t, 0.52, latest.Metrics.HHI, 1e-9)
}

func TestRepositoryLatestEmpty(t *testing.T) {
	repo := NewRepository(setupSnapshotsDB(t))

	latest, err := repo.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := NewRepository(setupSnapshotsDB(t))

	first, err := repo.Save(sampleSnapshot())
	require.NoError(t, err)
	second, err := repo.Save(sampleSnapshot())
	require.NoError(t, err)

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Same-second saves fall back to id ordering.
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	limited, err := repo.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
