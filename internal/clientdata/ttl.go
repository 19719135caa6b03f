package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLETFProfile bounds how long a fund's declared holdings are
	// served from cache. Providers refresh these daily at most.
	TTLETFProfile = 24 * time.Hour

	// TTLSymbolSearch covers ticker-to-name lookups. Listing names are
	// effectively static, so a long TTL saves request budget.
	TTLSymbolSearch = 30 * 24 * time.Hour
)

// SchemaVersion tags cache keys so that a change to the cached payload
// shape invalidates old entries rather than misinterpreting them.
const SchemaVersion = "v4"

// VersionedKey builds a cache key carrying the schema version tag.
func VersionedKey(key string) string {
	return SchemaVersion + ":" + key
}
