// Package portfolio manages the investor's ETF positions: persistence,
// asynchronous profile resolution against the data provider, and the
// bridge into the exposure engine.
package portfolio

import (
	"errors"
	"strings"
	"time"

	"github.com/aristath/fundlens/internal/clients/alphavantage"
)

// PositionStatus tracks where a position is in its lifecycle.
type PositionStatus string

const (
	// StatusPending - profile fetch not finished yet
	StatusPending PositionStatus = "pending"
	// StatusReady - profile resolved, position contributes to aggregates
	StatusReady PositionStatus = "ready"
	// StatusFailed - fetch failed with a terminal error
	StatusFailed PositionStatus = "failed"
)

// ErrorKind classifies terminal fetch failures. All kinds are
// non-retriable at this layer; the caller retries by re-adding the
// position.
type ErrorKind string

const (
	ErrorNone        ErrorKind = ""
	ErrorNotFound    ErrorKind = "not_found"
	ErrorRateLimited ErrorKind = "rate_limited"
	ErrorDailyLimit  ErrorKind = "daily_limit"
	ErrorNoHoldings  ErrorKind = "no_holdings"
	ErrorTransport   ErrorKind = "transport"
)

// ClassifyError maps a fetch error onto the error taxonomy. Anything
// that is not a provider-signaled condition is a transport failure.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}

	var notFound alphavantage.ErrSymbolNotFound
	var rateLimited alphavantage.ErrRateLimitExceeded
	var dailyLimit alphavantage.ErrDailyLimitExceeded
	var noHoldings alphavantage.ErrNoHoldingData

	switch {
	case errors.As(err, &notFound):
		return ErrorNotFound
	case errors.As(err, &rateLimited):
		return ErrorRateLimited
	case errors.As(err, &dailyLimit):
		return ErrorDailyLimit
	case errors.As(err, &noHoldings):
		return ErrorNoHoldings
	default:
		return ErrorTransport
	}
}

// Position is one portfolio entry. Exactly one of Profile/ErrorKind is
// set once resolution completes; both are absent while pending.
type Position struct {
	ID        string                   `json:"id"`
	Symbol    string                   `json:"symbol"`
	Equity    float64                  `json:"equity"`
	Status    PositionStatus           `json:"status"`
	ErrorKind ErrorKind                `json:"error_kind,omitempty"`
	Profile   *alphavantage.ETFProfile `json:"profile,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

// CanonicalSymbol normalizes a user-entered ticker: trimmed, uppercase.
func CanonicalSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
