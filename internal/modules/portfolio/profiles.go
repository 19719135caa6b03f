package portfolio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fundlens/internal/clientdata"
	"github.com/aristath/fundlens/internal/clients/alphavantage"
)

// Cache tables backing profile fetches and name lookups.
const (
	tableETFProfile   = "alphavantage_etf_profile"
	tableSymbolSearch = "alphavantage_symbol_search"
)

// ProfileService resolves a ticker to a normalized ETF profile,
// cache-first. A cache hit returns immediately with no network call and
// no mutation; a miss costs one provider request (plus one best-effort
// name lookup) and writes through to the cache.
//
// Concurrent fetches for the same ticker are not deduplicated: both can
// miss the cache and both will query the provider. The cache write is
// an idempotent last-writer-wins upsert carrying equivalent data, so
// this wastes request budget but never corrupts state.
type ProfileService struct {
	client      alphavantage.ClientInterface
	cache       *clientdata.Repository
	cacheTTL    time.Duration
	searchDelay time.Duration
	log         zerolog.Logger
}

// NewProfileService creates a new profile service. cache may be nil, in
// which case every fetch goes to the provider.
func NewProfileService(
	client alphavantage.ClientInterface,
	cache *clientdata.Repository,
	cacheTTL time.Duration,
	searchDelay time.Duration,
	log zerolog.Logger,
) *ProfileService {
	if cacheTTL <= 0 {
		cacheTTL = clientdata.TTLETFProfile
	}
	return &ProfileService{
		client:      client,
		cache:       cache,
		cacheTTL:    cacheTTL,
		searchDelay: searchDelay,
		log:         log.With().Str("component", "profile_service").Logger(),
	}
}

// Fetch resolves one canonical ticker to its profile. Failures surface
// as the typed provider errors (classify with ClassifyError); there is
// no retry at this layer.
func (s *ProfileService) Fetch(symbol string) (*alphavantage.ETFProfile, error) {
	symbol = CanonicalSymbol(symbol)
	cacheKey := clientdata.VersionedKey(symbol)

	if s.cache != nil {
		data, err := s.cache.GetIfFresh(tableETFProfile, cacheKey)
		if err == nil && data != nil {
			var profile alphavantage.ETFProfile
			if err := json.Unmarshal(data, &profile); err == nil {
				s.log.Debug().Str("symbol", symbol).Msg("Cache hit")
				return &profile, nil
			}
			// Undecodable entry: treat as a miss. The write below
			// replaces it.
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to decode cached profile")
		}
	}

	profile, err := s.client.GetETFProfile(symbol)
	if err != nil {
		return nil, err
	}

	// Best-effort name enrichment. The error is deliberately discarded:
	// a failed lookup leaves the ticker as the display name and never
	// changes the outcome of the fetch.
	if name, err := s.lookupName(symbol); err != nil {
		s.log.Debug().Err(err).Str("symbol", symbol).Msg("Name lookup failed, keeping ticker as display name")
	} else {
		profile.Name = name
	}

	if s.cache != nil {
		// Cache write failures degrade to a miss next time, never to
		// incorrect data, so they are logged and swallowed.
		if err := s.cache.Store(tableETFProfile, cacheKey, profile, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache ETF profile")
		}
	}

	s.log.Info().
		Str("symbol", symbol).
		Int("holdings", len(profile.Holdings)).
		Int("remaining_requests", s.client.GetRemainingRequests()).
		Msg("Fetched ETF profile")

	return profile, nil
}

// lookupName returns the display name of the exact match for symbol
// from a symbol search.
func (s *ProfileService) lookupName(symbol string) (string, error) {
	matches, err := s.searchMatches(symbol)
	if err != nil {
		return "", err
	}

	for _, m := range matches {
		if strings.ToUpper(strings.TrimSpace(m.Symbol)) == symbol && m.Name != "" {
			return m.Name, nil
		}
	}

	return "", fmt.Errorf("no exact match for %s", symbol)
}

// searchMatches resolves a symbol search, cache-first. Listing names
// are effectively static, so results are cached far longer than the
// profiles they enrich; a profile refetch normally finds the search
// still cached and spends only one provider request.
func (s *ProfileService) searchMatches(symbol string) ([]alphavantage.SymbolMatch, error) {
	cacheKey := clientdata.VersionedKey(symbol)

	if s.cache != nil {
		data, err := s.cache.GetIfFresh(tableSymbolSearch, cacheKey)
		if err == nil && data != nil {
			var matches []alphavantage.SymbolMatch
			if err := json.Unmarshal(data, &matches); err == nil {
				return matches, nil
			}
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to decode cached symbol search")
		}
	}

	// The pause keeps the two back-to-back provider requests under the
	// per-minute limit. A cache hit above skips it entirely.
	time.Sleep(s.searchDelay)

	matches, err := s.client.SearchSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(tableSymbolSearch, cacheKey, matches, clientdata.TTLSymbolSearch); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache symbol search")
		}
	}

	return matches, nil
}
