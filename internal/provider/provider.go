package provider

import (
	"context"

	"github.com/openfolio/pulse/internal/core"
)

// Provider defines the interface for market-data providers. Each
// implementation knows its own upstream error shapes and normalizes its
// payload into a core.Series before returning it.
type Provider interface {
	// Name identifies the provider in logs, metrics and cache sources.
	Name() string

	// Ready reports whether the provider has the credentials it needs.
	// A provider that is not ready is skipped, never an error.
	Ready() bool

	// FetchDaily fetches daily OHLCV history for the symbol over the
	// period. Failures are reported through the core error taxonomy:
	// ErrRateLimited, ErrInvalidSymbol, ErrEmptyResult, ErrTransport or
	// ErrMalformedResponse.
	FetchDaily(ctx context.Context, symbol string, period core.Period) (*core.Series, error)
}
