package database

// schemas maps database names to their bootstrap DDL. All statements are
// idempotent (IF NOT EXISTS) so Migrate can run on every startup.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"cache":     cacheSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS positions (
    id         TEXT PRIMARY KEY,
    symbol     TEXT NOT NULL,
    equity     REAL NOT NULL CHECK (equity >= 0),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_created ON positions(created_at);

CREATE TABLE IF NOT EXISTS exposure_snapshots (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    taken_at INTEGER NOT NULL,
    data     BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON exposure_snapshots(taken_at);
`

const cacheSchema = `
CREATE TABLE IF NOT EXISTS alphavantage_etf_profile (
    cache_key  TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS alphavantage_symbol_search (
    cache_key  TEXT PRIMARY KEY,
    data       TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_etf_profile_expires ON alphavantage_etf_profile(expires_at);
CREATE INDEX IF NOT EXISTS idx_symbol_search_expires ON alphavantage_symbol_search(expires_at);
`
