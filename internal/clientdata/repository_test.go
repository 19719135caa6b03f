package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE alphavantage_etf_profile (cache_key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE alphavantage_symbol_search (cache_key TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);

CREATE INDEX idx_etf_profile_expires ON alphavantage_etf_profile(expires_at);
CREATE INDEX idx_symbol_search_expires ON alphavantage_symbol_search(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestNewRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	assert.NotNil(t, repo)
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	data := map[string]interface{}{
		"symbol":            "SPY",
		"net_expense_ratio": "0.0009",
	}

	err := repo.Store("alphavantage_etf_profile", VersionedKey("SPY"), data, 24*time.Hour)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM alphavantage_etf_profile WHERE cache_key = ?", "v4:SPY").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal([]byte(storedData), &parsed)
	require.NoError(t, err)
	assert.Equal(t, "SPY", parsed["symbol"])

	// Verify expiration is roughly 24 hours from now
	expectedExpires := time.Now().Add(24 * time.Hour).Unix()
	assert.InDelta(t, expectedExpires, expiresAt, 5) // Allow 5 second tolerance
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	data1 := map[string]string{"version": "1"}
	err := repo.Store("alphavantage_etf_profile", "v4:QQQ", data1, time.Hour)
	require.NoError(t, err)

	data2 := map[string]string{"version": "2"}
	err = repo.Store("alphavantage_etf_profile", "v4:QQQ", data2, time.Hour)
	require.NoError(t, err)

	// Only one row exists with the updated data (last writer wins)
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM alphavantage_etf_profile WHERE cache_key = ?", "v4:QQQ").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	result, err := repo.GetIfFresh("alphavantage_etf_profile", "v4:QQQ")
	require.NoError(t, err)
	require.NotNil(t, result)

	var parsed map[string]string
	err = json.Unmarshal(result, &parsed)
	require.NoError(t, err)
	assert.Equal(t, "2", parsed["version"])
}

func TestGetIfFreshRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	data := map[string]string{"name": "SPDR S&P 500 ETF"}
	err := repo.Store("alphavantage_symbol_search", "v4:SPY", data, time.Hour)
	require.NoError(t, err)

	result, err := repo.GetIfFresh("alphavantage_symbol_search", "v4:SPY")
	require.NoError(t, err)
	require.NotNil(t, result)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(result, &parsed))
	assert.Equal(t, "SPDR S&P 500 ETF", parsed["name"])
}

func TestGetIfFreshMissingKey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	result, err := repo.GetIfFresh("alphavantage_etf_profile", "v4:MISSING")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetIfFreshExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	// Store with a TTL that has already elapsed
	err := repo.Store("alphavantage_etf_profile", "v4:OLD", map[string]string{"stale": "yes"}, -time.Minute)
	require.NoError(t, err)

	result, err := repo.GetIfFresh("alphavantage_etf_profile", "v4:OLD")
	require.NoError(t, err)
	assert.Nil(t, result, "expired entries must never be returned")

	// Lazy expiry removes the row on the read that discovered it
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM alphavantage_etf_profile WHERE cache_key = ?", "v4:OLD").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "expired row should be deleted on read")
}

func TestSchemaVersionedKeyMiss(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	// An entry written under an older schema tag is invisible to readers
	// using the current tag.
	err := repo.Store("alphavantage_etf_profile", "v3:SPY", map[string]string{"old": "shape"}, time.Hour)
	require.NoError(t, err)

	result, err := repo.GetIfFresh("alphavantage_etf_profile", VersionedKey("SPY"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:VTI", map[string]string{"a": "b"}, time.Hour))
	require.NoError(t, repo.Delete("alphavantage_etf_profile", "v4:VTI"))

	result, err := repo.GetIfFresh("alphavantage_etf_profile", "v4:VTI")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:FRESH", map[string]string{"a": "b"}, time.Hour))
	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:STALE1", map[string]string{"a": "b"}, -time.Hour))
	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:STALE2", map[string]string{"a": "b"}, -time.Minute))

	deleted, err := repo.DeleteExpired("alphavantage_etf_profile")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	result, err := repo.GetIfFresh("alphavantage_etf_profile", "v4:FRESH")
	require.NoError(t, err)
	assert.NotNil(t, result, "fresh entry should survive cleanup")
}

func TestDeleteExpiredBoundary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	// A row expiring exactly now is already unserveable, so cleanup
	// must remove it too, same boundary as GetIfFresh.
	_, err := db.Exec(
		"INSERT INTO alphavantage_etf_profile (cache_key, data, expires_at) VALUES (?, ?, ?)",
		"v4:EDGE", `{"a":"b"}`, time.Now().Unix(),
	)
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired("alphavantage_etf_profile")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "row at the expiry boundary is eligible for cleanup")
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:STALE", map[string]string{"a": "b"}, -time.Hour))
	require.NoError(t, repo.Store("alphavantage_symbol_search", "v4:STALE", map[string]string{"a": "b"}, -time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results["alphavantage_etf_profile"])
	assert.Equal(t, int64(1), results["alphavantage_symbol_search"])
}

func TestInvalidTableRejected(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Store("positions; DROP TABLE positions", "key", "data", time.Hour)
	assert.Error(t, err)

	_, err = repo.GetIfFresh("unknown_table", "key")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:A", map[string]string{"a": "1"}, time.Hour))
	require.NoError(t, repo.Store("alphavantage_etf_profile", "v4:B", map[string]string{"b": "2"}, -time.Hour))

	count, err := repo.Count("alphavantage_etf_profile")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "Count includes expired rows until cleanup")
}
