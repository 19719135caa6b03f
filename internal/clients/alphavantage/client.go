// Package alphavantage provides a client for the Alpha Vantage market
// data API, covering the ETF profile and symbol search endpoints.
//
// The free tier allows 25 requests per day, so the client keeps a local
// request budget in addition to classifying the quota signals the
// provider embeds in response bodies.
package alphavantage

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// dailyRequestLimit is the free-tier request budget per UTC day.
const dailyRequestLimit = 25

// ClientInterface is the surface consumed by the fetch layer.
// Kept minimal so tests can substitute a stub.
type ClientInterface interface {
	GetETFProfile(symbol string) (*ETFProfile, error)
	SearchSymbol(keywords string) ([]SymbolMatch, error)
	GetRemainingRequests() int
}

// Client is an Alpha Vantage API client.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     zerolog.Logger

	mu           sync.Mutex
	requestCount int
	resetAt      time.Time
}

// NewClient creates a new Alpha Vantage client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://www.alphavantage.co/query",
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log.With().Str("client", "alphavantage").Logger(),
		resetAt: nextMidnightUTC(),
	}
}

// GetETFProfile fetches a fund's declared holdings and sector weights.
// A non-success HTTP status or network failure surfaces as a wrapped
// transport error; provider-signaled conditions surface as the typed
// errors in errors.go.
func (c *Client) GetETFProfile(symbol string) (*ETFProfile, error) {
	body, err := c.get("ETF_PROFILE", map[string]string{"symbol": symbol})
	if err != nil {
		return nil, err
	}

	if err := c.checkAPIError(symbol, body); err != nil {
		return nil, err
	}

	profile, err := parseETFProfile(symbol, body)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("holdings", len(profile.Holdings)).
		Int("sectors", len(profile.Sectors)).
		Msg("Fetched ETF profile")

	return profile, nil
}

// SearchSymbol runs a SYMBOL_SEARCH query and returns the best matches.
func (c *Client) SearchSymbol(keywords string) ([]SymbolMatch, error) {
	body, err := c.get("SYMBOL_SEARCH", map[string]string{"keywords": keywords})
	if err != nil {
		return nil, err
	}

	if err := c.checkAPIError(keywords, body); err != nil {
		return nil, err
	}

	return parseSymbolSearch(body)
}

// get issues a GET for the given function, enforcing the local request
// budget first.
func (c *Client) get(function string, params map[string]string) ([]byte, error) {
	if err := c.checkRateLimit(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("function", function)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("apikey", c.apiKey)

	reqURL := c.baseURL + "?" + q.Encode()

	resp, err := c.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// checkAPIError inspects a 200-OK body for the provider's embedded
// failure signals. The three fields are mutually exclusive and checked
// in a fixed order: explicit error, then soft quota, then hard quota.
func (c *Client) checkAPIError(symbol string, body []byte) error {
	var signals struct {
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}
	if err := json.Unmarshal(body, &signals); err != nil {
		// Non-JSON bodies ("Thank you for using Alpha Vantage!") show up
		// when the per-minute limit trips.
		return ErrRateLimitExceeded{}
	}

	switch {
	case signals.ErrorMessage != "":
		return ErrSymbolNotFound{Symbol: symbol}
	case signals.Note != "":
		return ErrRateLimitExceeded{}
	case signals.Information != "":
		return ErrDailyLimitExceeded{}
	}

	return nil
}

// checkRateLimit consumes one unit of the daily request budget.
func (c *Client) checkRateLimit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().UTC().After(c.resetAt) {
		c.requestCount = 0
		c.resetAt = nextMidnightUTC()
	}

	if c.requestCount >= dailyRequestLimit {
		return ErrRateLimitExceeded{}
	}

	c.requestCount++
	return nil
}

// GetRemainingRequests returns how much of today's budget is left.
func (c *Client) GetRemainingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().UTC().After(c.resetAt) {
		return dailyRequestLimit
	}
	return dailyRequestLimit - c.requestCount
}

// ResetDailyCounter resets the local request budget. Scheduled at UTC
// midnight, matching the provider's quota window.
func (c *Client) ResetDailyCounter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount = 0
	c.resetAt = nextMidnightUTC()
}

// nextMidnightUTC returns the start of the next UTC day.
func nextMidnightUTC() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}
