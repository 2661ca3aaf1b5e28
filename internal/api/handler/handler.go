// Package handler implements the JSON API consumed by the dashboard UI.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/openfolio/pulse/internal/api/response"
	"github.com/openfolio/pulse/internal/core"
	"github.com/openfolio/pulse/internal/indicator"
	"github.com/openfolio/pulse/internal/provider"
	"go.uber.org/zap"
)

// SeriesFetcher is the slice of the fetcher the handlers need.
type SeriesFetcher interface {
	GetSeries(ctx context.Context, symbol, period string) (*core.Series, error)
	Providers() []provider.Provider
}

// Handler serves the dashboard API.
type Handler struct {
	fetcher SeriesFetcher
	logger  *zap.Logger
}

// New creates a Handler.
func New(fetcher SeriesFetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// seriesPayload is the body of a successful series response.
type seriesPayload struct {
	Symbol     string                       `json:"symbol"`
	Period     string                       `json:"period"`
	Series     *core.Series                 `json:"series"`
	Indicators indicator.Set                `json:"indicators"`
	Overlays   map[string][]indicator.Point `json:"overlays"`
}

// Series handles GET /api/v1/series. It returns the fetched bars, the
// indicator set and moving-average chart overlays in one round trip.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	series, set, ok := h.fetch(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, seriesPayload{
		Symbol:     series.Symbol,
		Period:     periodParam(r),
		Series:     series,
		Indicators: set,
		Overlays: map[string][]indicator.Point{
			"ma20":  indicator.Overlay(series, 20),
			"ma50":  indicator.Overlay(series, 50),
			"ema20": indicator.OverlayEMA(series, 20),
		},
	})
}

// Indicators handles GET /api/v1/indicators: the indicator set alone,
// for summary cards that don't need the bars.
func (h *Handler) Indicators(w http.ResponseWriter, r *http.Request) {
	series, set, ok := h.fetch(w, r)
	if !ok {
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":     series.Symbol,
		"period":     periodParam(r),
		"indicators": set,
	})
}

// providerStatus describes one configured provider.
type providerStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// Providers handles GET /api/v1/providers.
func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	providers := h.fetcher.Providers()
	statuses := make([]providerStatus, len(providers))
	for i, p := range providers {
		statuses[i] = providerStatus{Name: p.Name(), Ready: p.Ready()}
	}
	response.JSON(w, http.StatusOK, map[string]any{"providers": statuses})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// fetch runs the shared symbol/period/benchmark flow. It writes the
// error response itself and reports ok=false when the caller should
// stop.
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*core.Series, indicator.Set, bool) {
	symbol := r.URL.Query().Get("symbol")
	if core.NormalizeSymbol(symbol) == "" {
		response.Error(w, http.StatusBadRequest, core.ErrEmptySymbol)
		return nil, indicator.Set{}, false
	}

	series, err := h.fetcher.GetSeries(r.Context(), symbol, periodParam(r))
	if err != nil {
		h.writeFetchError(w, err)
		return nil, indicator.Set{}, false
	}
	if series == nil {
		response.Error(w, http.StatusNotFound, core.ErrNoData)
		return nil, indicator.Set{}, false
	}

	var benchmark *core.Series
	if benchSymbol := r.URL.Query().Get("benchmark"); core.NormalizeSymbol(benchSymbol) != "" {
		benchmark, err = h.fetcher.GetSeries(r.Context(), benchSymbol, periodParam(r))
		if err != nil {
			// A broken benchmark only costs the beta field.
			h.logger.Warn("benchmark fetch failed",
				zap.String("benchmark", benchSymbol),
				zap.Error(err),
			)
			benchmark = nil
		}
	}

	return series, indicator.ComputeWithBenchmark(series, benchmark), true
}

func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		response.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, core.ErrNotConfigured):
		response.Error(w, http.StatusServiceUnavailable, err)
	default:
		h.logger.Error("series fetch failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, err)
	}
}

func periodParam(r *http.Request) string {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "6m"
	}
	return period
}
