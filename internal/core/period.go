package core

import "strings"

// Period is a logical lookback window for a history request.
type Period struct {
	// Key is the canonical token ("1m", "6m", "1y", "5y", "max") used in
	// cache keys and API parameters.
	Key string
	// Days is the lookback window in calendar days; 0 means no
	// client-side truncation (full available history).
	Days int
	// ChartRange is the native range token for chart-style APIs.
	ChartRange string
	// FullOutput selects the provider's large payload variant where one
	// exists (compact vs full history downloads).
	FullOutput bool
}

// Max reports whether the period covers all available history.
func (p Period) Max() bool {
	return p.Days == 0
}

var periods = map[string]Period{
	"1m":  {Key: "1m", Days: 31, ChartRange: "1mo"},
	"6m":  {Key: "6m", Days: 186, ChartRange: "6mo"},
	"1y":  {Key: "1y", Days: 366, ChartRange: "1y", FullOutput: true},
	"5y":  {Key: "5y", Days: 1830, ChartRange: "5y", FullOutput: true},
	"max": {Key: "max", Days: 0, ChartRange: "max", FullOutput: true},
}

// NarrowedPeriod is the window the fetcher retries with when a wider
// request yields no data from any provider.
var NarrowedPeriod = periods["6m"]

// ResolvePeriod maps a raw period token to its Period. The token is
// trimmed and lowercased first. Unknown tokens return ErrInvalidPeriod;
// callers should treat that as a usage error, not something to retry.
func ResolvePeriod(raw string) (Period, error) {
	p, ok := periods[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// PeriodKeys returns the supported period tokens in ascending window order.
func PeriodKeys() []string {
	return []string{"1m", "6m", "1y", "5y", "max"}
}

// Narrowable reports whether a failed request for p should be retried
// with the narrowed window. Only windows wider than the narrowed one
// qualify; narrowing a 1-month request to 6 months would widen it.
func (p Period) Narrowable() bool {
	if p.Key == NarrowedPeriod.Key {
		return false
	}
	return p.Max() || p.Days > NarrowedPeriod.Days
}

// NormalizeSymbol trims surrounding whitespace and uppercases a raw
// ticker. An empty result means the input was unusable.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
