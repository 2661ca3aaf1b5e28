package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/provider"
)

// stubProvider scripts responses per period key and counts calls.
type stubProvider struct {
	name  string
	ready bool
	calls int
	fetch func(symbol string, period core.Period) (*core.Series, error)
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Ready() bool  { return s.ready }
func (s *stubProvider) FetchDaily(_ context.Context, symbol string, period core.Period) (*core.Series, error) {
	s.calls++
	return s.fetch(symbol, period)
}

func seriesOfLen(symbol, source string, n int) *core.Series {
	s := &core.Series{Symbol: symbol, Source: source}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, core.Bar{Date: start.AddDate(0, 0, i), Close: core.Float(100 + float64(i))})
	}
	return s
}

func always(series *core.Series, err error) func(string, core.Period) (*core.Series, error) {
	return func(string, core.Period) (*core.Series, error) { return series, err }
}

// newTestFetcher builds a fetcher with instant backoff sleeps.
func newTestFetcher(cfg Config, providers ...provider.Provider) *Fetcher {
	f := New(cfg, providers, nil, nil)
	f.sleep = func(time.Duration) {}
	return f
}

func TestGetSeries_EmptySymbol(t *testing.T) {
	p := &stubProvider{name: "primary", ready: true, fetch: always(seriesOfLen("X", "primary", 3), nil)}
	f := newTestFetcher(Defaults(), p)

	series, err := f.GetSeries(context.Background(), "   ", "1y")
	if err != nil || series != nil {
		t.Errorf("empty symbol should be absent without error, got %v/%v", series, err)
	}
	if p.calls != 0 {
		t.Errorf("no network call expected for empty symbol, got %d", p.calls)
	}
}

func TestGetSeries_InvalidPeriod(t *testing.T) {
	f := newTestFetcher(Defaults(),
		&stubProvider{name: "primary", ready: true, fetch: always(nil, core.ErrEmptyResult)})

	_, err := f.GetSeries(context.Background(), "AAPL", "2w")
	if !errors.Is(err, core.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestGetSeries_NoReadyProviders(t *testing.T) {
	f := newTestFetcher(Defaults(),
		&stubProvider{name: "primary", ready: false, fetch: always(nil, nil)})

	_, err := f.GetSeries(context.Background(), "AAPL", "1y")
	if !errors.Is(err, core.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGetSeries_RateLimitFallsThrough(t *testing.T) {
	primary := &stubProvider{name: "primary", ready: true, fetch: always(nil, core.ErrRateLimited)}
	secondary := &stubProvider{name: "secondary", ready: true,
		fetch: always(seriesOfLen("AAA", "secondary", 30), nil)}
	f := newTestFetcher(Defaults(), primary, secondary)

	// Symbol normalization and fallback exercised together.
	series, err := f.GetSeries(context.Background(), "aaa ", "1y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series == nil || series.Source != "secondary" || series.Len() != 30 {
		t.Fatalf("expected secondary's 30-row series, got %+v", series)
	}
	if primary.calls != 1 {
		t.Errorf("rate-limited provider must not be retried, got %d calls", primary.calls)
	}
}

func TestGetSeries_TransientRetriesThenFallsThrough(t *testing.T) {
	primary := &stubProvider{name: "primary", ready: true, fetch: always(nil, core.ErrTransport)}
	secondary := &stubProvider{name: "secondary", ready: true,
		fetch: always(seriesOfLen("X", "secondary", 5), nil)}

	var slept []time.Duration
	f := New(Config{MaxAttempts: 3, Backoff: 100 * time.Millisecond}, []provider.Provider{primary, secondary}, nil, nil)
	f.sleep = func(d time.Duration) { slept = append(slept, d) }

	series, err := f.GetSeries(context.Background(), "X", "1y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series == nil || series.Source != "secondary" {
		t.Fatal("expected secondary series after primary exhausted")
	}
	if primary.calls != 3 {
		t.Errorf("expected 3 attempts against primary, got %d", primary.calls)
	}

	// Exponential backoff between attempts, none after the last.
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Errorf("unexpected backoff schedule: %v", slept)
	}
}

func TestGetSeries_InvalidSymbolNoRetry(t *testing.T) {
	primary := &stubProvider{name: "primary", ready: true, fetch: always(nil, core.ErrInvalidSymbol)}
	secondary := &stubProvider{name: "secondary", ready: true, fetch: always(nil, core.ErrInvalidSymbol)}
	f := newTestFetcher(Defaults(), primary, secondary)

	series, err := f.GetSeries(context.Background(), "NOPE", "1m")
	if err != nil || series != nil {
		t.Errorf("unknown symbol should be absent without error, got %v/%v", series, err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("invalid symbol must not be retried, got %d/%d calls", primary.calls, secondary.calls)
	}
}

func TestGetSeries_PeriodNarrowing(t *testing.T) {
	// Both providers are empty for 1y; the secondary has 5 rows for 6m.
	empty := func(symbol string, period core.Period) (*core.Series, error) {
		return nil, core.ErrEmptyResult
	}
	primary := &stubProvider{name: "primary", ready: true, fetch: empty}
	secondary := &stubProvider{name: "secondary", ready: true,
		fetch: func(symbol string, period core.Period) (*core.Series, error) {
			if period.Key == "6m" {
				return seriesOfLen(symbol, "secondary", 5), nil
			}
			return nil, core.ErrEmptyResult
		}}
	f := newTestFetcher(Defaults(), primary, secondary)

	series, err := f.GetSeries(context.Background(), "X", "1y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series == nil || series.Len() != 5 {
		t.Fatalf("expected narrowed 5-row series, got %+v", series)
	}

	// The narrowed result is cached under the original period: a second
	// identical call must not touch the network again.
	primaryCalls, secondaryCalls := primary.calls, secondary.calls
	series2, err := f.GetSeries(context.Background(), "X", "1y")
	if err != nil || series2 == nil || series2.Len() != 5 {
		t.Fatalf("expected cached series, got %v/%v", series2, err)
	}
	if primary.calls != primaryCalls || secondary.calls != secondaryCalls {
		t.Error("second call should be served from cache without network attempts")
	}
}

func TestGetSeries_NoNarrowingForShortPeriods(t *testing.T) {
	calls := make(map[string]int)
	p := &stubProvider{name: "primary", ready: true,
		fetch: func(symbol string, period core.Period) (*core.Series, error) {
			calls[period.Key]++
			return nil, core.ErrEmptyResult
		}}
	f := newTestFetcher(Defaults(), p)

	series, err := f.GetSeries(context.Background(), "X", "1m")
	if err != nil || series != nil {
		t.Fatalf("expected absent result, got %v/%v", series, err)
	}
	if calls["6m"] != 0 {
		t.Error("1m request must not widen to 6m")
	}

	series, err = f.GetSeries(context.Background(), "X", "6m")
	if err != nil || series != nil {
		t.Fatalf("expected absent result, got %v/%v", series, err)
	}
	if calls["6m"] != 1 {
		t.Errorf("6m request must not narrow onto itself, got %d calls", calls["6m"])
	}
}

func TestGetSeries_CachesSuccess(t *testing.T) {
	p := &stubProvider{name: "primary", ready: true, fetch: always(seriesOfLen("AAPL", "primary", 10), nil)}
	f := newTestFetcher(Defaults(), p)

	if _, err := f.GetSeries(context.Background(), "AAPL", "1y"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.GetSeries(context.Background(), " aapl", "1y"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Errorf("second request should hit the cache, got %d provider calls", p.calls)
	}
}

func TestGetSeries_EmptySeriesNotCached(t *testing.T) {
	p := &stubProvider{name: "primary", ready: true, fetch: always(&core.Series{Symbol: "X"}, nil)}
	f := newTestFetcher(Defaults(), p)

	series, err := f.GetSeries(context.Background(), "X", "6m")
	if err != nil || series != nil {
		t.Fatalf("empty series should surface as absent, got %v/%v", series, err)
	}
	if f.cache.Len() != 0 {
		t.Error("absent results must not be cached")
	}
}

func TestGetSeries_SkipsUnreadyProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", ready: false,
		fetch: func(string, core.Period) (*core.Series, error) {
			t.Error("unready provider should never be called")
			return nil, nil
		}}
	secondary := &stubProvider{name: "secondary", ready: true,
		fetch: always(seriesOfLen("X", "secondary", 3), nil)}
	f := newTestFetcher(Defaults(), primary, secondary)

	series, err := f.GetSeries(context.Background(), "X", "1y")
	if err != nil || series == nil {
		t.Fatalf("expected secondary series, got %v/%v", series, err)
	}
}
