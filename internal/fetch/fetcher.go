package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/metrics"
	"github.com/openfolio/pulse/internal/provider"
	"go.uber.org/zap"
)

// Config holds fetcher tuning.
type Config struct {
	// MaxAttempts bounds calls against one provider for transient
	// failures (transport errors, malformed payloads).
	MaxAttempts int
	// Backoff is the delay before the first retry; it doubles per
	// attempt.
	Backoff time.Duration
	// CacheTTL is how long a fetched series stays valid.
	CacheTTL time.Duration
}

// Defaults returns the default fetcher configuration.
func Defaults() Config {
	return Config{
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		CacheTTL:    DefaultTTL,
	}
}

// Fetcher orchestrates history fetches across providers: symbol
// normalization, cache lookups, the priority fallback loop with
// per-error retry policy, and the period-narrowing fallback.
type Fetcher struct {
	providers []provider.Provider
	cache     *Cache
	logger    *zap.Logger
	metrics   *metrics.Registry

	maxAttempts int
	backoff     time.Duration
	sleep       func(time.Duration)
}

// New creates a Fetcher. Providers are tried in the order given. The
// metrics registry may be nil.
func New(cfg Config, providers []provider.Provider, logger *zap.Logger, reg *metrics.Registry) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}

	return &Fetcher{
		providers:   providers,
		cache:       NewCache(cfg.CacheTTL),
		logger:      logger,
		metrics:     reg,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
		sleep:       time.Sleep,
	}
}

// Providers returns the configured providers in priority order.
func (f *Fetcher) Providers() []provider.Provider {
	return f.providers
}

// GetSeries fetches daily history for the symbol over the logical
// period. A nil series with a nil error means no data is available,
// which is not an error condition. Errors are reserved for usage mistakes
// (ErrInvalidPeriod) and for the configuration case where no provider
// is even attemptable (ErrNotConfigured).
func (f *Fetcher) GetSeries(ctx context.Context, symbol, periodKey string) (*core.Series, error) {
	sym := core.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, nil
	}

	period, err := core.ResolvePeriod(periodKey)
	if err != nil {
		return nil, err
	}

	key := Key(sym, period)
	if series, ok := f.cache.Get(key); ok {
		f.logger.Debug("cache hit", zap.String("key", key))
		if f.metrics != nil {
			f.metrics.RecordCacheHit()
		}
		return series, nil
	}
	if f.metrics != nil {
		f.metrics.RecordCacheMiss()
	}

	ready := 0
	for _, p := range f.providers {
		if p.Ready() {
			ready++
		}
	}
	if ready == 0 {
		return nil, core.ErrNotConfigured
	}

	series := f.tryProviders(ctx, sym, period)

	// Period-narrowing fallback: a long lookback that every provider
	// rejected or throttled may still succeed with a shorter window.
	if series == nil && period.Narrowable() {
		f.logger.Info("narrowing period",
			zap.String("symbol", sym),
			zap.String("from", period.Key),
			zap.String("to", core.NarrowedPeriod.Key),
		)
		if f.metrics != nil {
			f.metrics.RecordNarrowing()
		}
		series = f.tryProviders(ctx, sym, core.NarrowedPeriod)
	}

	if series == nil {
		return nil, nil
	}

	// Cache under the originally requested period so repeat requests
	// do not re-run the narrowing dance.
	f.cache.Put(key, series)
	if f.metrics != nil {
		f.metrics.RecordSeriesServed(series.Source)
	}
	return series, nil
}

// tryProviders walks the providers in priority order and returns the
// first non-empty series, or nil when every provider is exhausted.
// Providers are strictly sequential: the next one is only attempted
// after the previous one's retries are spent.
func (f *Fetcher) tryProviders(ctx context.Context, symbol string, period core.Period) *core.Series {
	for _, p := range f.providers {
		if !p.Ready() {
			f.logger.Debug("skipping provider without credentials", zap.String("provider", p.Name()))
			continue
		}

		if series := f.tryProvider(ctx, p, symbol, period); series != nil {
			return series
		}
	}
	return nil
}

// tryProvider runs the retry loop for one provider. Only transport and
// malformed-response failures are retried; a rate limit abandons the
// provider immediately, and invalid-symbol or empty results cannot
// change on retry.
func (f *Fetcher) tryProvider(ctx context.Context, p provider.Provider, symbol string, period core.Period) *core.Series {
	log := f.logger.With(
		zap.String("provider", p.Name()),
		zap.String("symbol", symbol),
		zap.String("period", period.Key),
	)

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		series, err := p.FetchDaily(ctx, symbol, period)
		if err == nil {
			if series == nil || series.IsEmpty() {
				f.record(p, "empty")
				log.Debug("provider returned empty series")
				return nil
			}
			f.record(p, "success")
			log.Debug("fetched series", zap.Int("bars", series.Len()))
			return series
		}

		switch {
		case errors.Is(err, core.ErrRateLimited):
			f.record(p, "rate_limited")
			log.Warn("provider rate limited, moving on", zap.Error(err))
			return nil
		case errors.Is(err, core.ErrInvalidSymbol):
			f.record(p, "invalid_symbol")
			log.Debug("symbol unknown to provider", zap.Error(err))
			return nil
		case errors.Is(err, core.ErrEmptyResult):
			f.record(p, "empty")
			log.Debug("provider returned no rows", zap.Error(err))
			return nil
		default:
			// Transport errors, malformed payloads and anything
			// unexpected share the transient policy.
			f.record(p, "transient")
			if attempt == f.maxAttempts {
				log.Warn("provider exhausted", zap.Int("attempts", attempt), zap.Error(err))
				return nil
			}
			delay := f.backoff << (attempt - 1)
			log.Debug("retrying after transient failure",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
			if f.metrics != nil {
				f.metrics.RecordFetchRetry(p.Name())
			}
			f.sleep(delay)
		}
	}
	return nil
}

func (f *Fetcher) record(p provider.Provider, outcome string) {
	if f.metrics != nil {
		f.metrics.RecordFetchAttempt(p.Name(), outcome)
	}
}
