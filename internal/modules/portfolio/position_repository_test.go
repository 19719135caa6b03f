package portfolio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const testPositionsSchema = `
CREATE TABLE positions (
    id         TEXT PRIMARY KEY,
    symbol     TEXT NOT NULL,
    equity     REAL NOT NULL CHECK (equity >= 0),
    created_at INTEGER NOT NULL
);
`

func setupPositionsDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(testPositionsSchema)
	require.NoError(t, err)

	return db
}

func TestPositionRepositoryInsertAndList(t *testing.T) {
	db := setupPositionsDB(t)
	defer db.Close()

	repo := NewPositionRepository(db)

	now := time.Now().Unix()
	require.NoError(t, repo.Insert(PersistedPosition{ID: "a", Symbol: "SPY", Equity: 10000, CreatedAt: now}))
	require.NoError(t, repo.Insert(PersistedPosition{ID: "b", Symbol: "QQQ", Equity: 5000, CreatedAt: now + 1}))

	positions, err := repo.List()
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "SPY", positions[0].Symbol, "list is ordered by creation time")
	assert.Equal(t, "QQQ", positions[1].Symbol)
	assert.Equal(t, 10000.0, positions[0].Equity)
}

func TestPositionRepositoryListStableForSameTimestamp(t *testing.T) {
	db := setupPositionsDB(t)
	defer db.Close()

	repo := NewPositionRepository(db)

	now := time.Now().Unix()
	require.NoError(t, repo.Insert(PersistedPosition{ID: "1-a", Symbol: "VTI", Equity: 1, CreatedAt: now}))
	require.NoError(t, repo.Insert(PersistedPosition{ID: "2-b", Symbol: "VXUS", Equity: 1, CreatedAt: now}))

	positions, err := repo.List()
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "VTI", positions[0].Symbol, "same-second inserts break ties by id")
}

func TestPositionRepositoryDelete(t *testing.T) {
	db := setupPositionsDB(t)
	defer db.Close()

	repo := NewPositionRepository(db)
	require.NoError(t, repo.Insert(PersistedPosition{ID: "a", Symbol: "SPY", Equity: 100, CreatedAt: 1}))

	removed, err := repo.Delete("a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete("a")
	require.NoError(t, err)
	assert.False(t, removed, "second delete finds nothing")

	exists, err := repo.Exists("a")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPositionRepositoryCount(t *testing.T) {
	db := setupPositionsDB(t)
	defer db.Close()

	repo := NewPositionRepository(db)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.Insert(PersistedPosition{ID: "a", Symbol: "SPY", Equity: 100, CreatedAt: 1}))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPositionRepositoryRejectsNegativeEquity(t *testing.T) {
	db := setupPositionsDB(t)
	defer db.Close()

	repo := NewPositionRepository(db)
	err := repo.Insert(PersistedPosition{ID: "a", Symbol: "SPY", Equity: -1, CreatedAt: 1})
	assert.Error(t, err, "schema check constraint rejects negative equity")
}
