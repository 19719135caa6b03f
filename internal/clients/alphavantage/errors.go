package alphavantage

import "fmt"

// The provider signals distinct failure conditions in otherwise
// successful HTTP responses. Each gets its own type so callers can
// classify with errors.As. Anything not matching one of these types is
// a transport-level failure.

// ErrSymbolNotFound indicates the provider rejected the symbol
// (explicit "Error Message" field in the response body).
type ErrSymbolNotFound struct {
	Symbol string
}

func (e ErrSymbolNotFound) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Symbol)
}

// ErrRateLimitExceeded indicates the provider's soft quota signal
// ("Note" field), or that the local daily request budget is spent.
type ErrRateLimitExceeded struct{}

func (e ErrRateLimitExceeded) Error() string {
	return "alpha vantage API rate limit exceeded"
}

// ErrDailyLimitExceeded indicates the provider's hard daily quota
// signal ("Information" field).
type ErrDailyLimitExceeded struct{}

func (e ErrDailyLimitExceeded) Error() string {
	return "alpha vantage daily request limit exceeded"
}

// ErrNoHoldingData indicates a well-formed response that lacks a usable
// holdings list. Some obscure funds return empty bodies.
type ErrNoHoldingData struct {
	Symbol string
}

func (e ErrNoHoldingData) Error() string {
	return fmt.Sprintf("no holding data for %s", e.Symbol)
}
