package indicator

import (
	"math"
	"time"

	"github.com/openfolio/pulse/internal/core"
)

const tradingDaysPerYear = 252

// Set holds the derived indicators for one series. Every field is
// independently optional: nil means the value is undefined for the input
// (insufficient history, missing volume, no benchmark). All percentage
// fields are already multiplied by 100, so 5.23 means 5.23%.
type Set struct {
	LastPrice               *float64 `json:"last_price,omitempty"`
	PriceChangePct          *float64 `json:"price_change_pct,omitempty"`
	PeriodReturnPct         *float64 `json:"period_return_pct,omitempty"`
	CAGRPct                 *float64 `json:"cagr_pct,omitempty"`
	AnnualizedVolatilityPct *float64 `json:"annualized_volatility_pct,omitempty"`
	SharpeRatio             *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdownPct          *float64 `json:"max_drawdown_pct,omitempty"`
	BetaVsBenchmark         *float64 `json:"beta_vs_benchmark,omitempty"`
	AvgVolume               *float64 `json:"avg_volume,omitempty"`
	MA20                    *float64 `json:"ma20,omitempty"`
	MA50                    *float64 `json:"ma50,omitempty"`
}

// Compute derives the indicator set from a series. It never fails: any
// computation that is undefined for the input leaves its field nil. A
// series with fewer than 2 usable closes yields an all-nil set.
func Compute(series *core.Series) Set {
	return ComputeWithBenchmark(series, nil)
}

// ComputeWithBenchmark derives the indicator set, including beta against
// the benchmark series when one is given. Beta requires at least 2
// overlapping dates and non-zero benchmark return variance.
func ComputeWithBenchmark(series, benchmark *core.Series) Set {
	var set Set
	if series == nil {
		return set
	}

	closes, dates := series.Closes()
	n := len(closes)
	if n < 2 {
		return set
	}

	set.LastPrice = core.Float(closes[n-1])
	if prev := closes[n-2]; prev != 0 {
		set.PriceChangePct = core.Float((closes[n-1]/prev - 1) * 100)
	}

	if closes[0] > 0 {
		set.PeriodReturnPct = core.Float((closes[n-1]/closes[0] - 1) * 100)
		set.CAGRPct = cagr(closes, dates)
	}

	returns := dailyReturns(closes)
	if len(returns) >= 2 {
		sd := sampleStdDev(returns)
		set.AnnualizedVolatilityPct = core.Float(sd * math.Sqrt(tradingDaysPerYear) * 100)
		if sd > 0 {
			set.SharpeRatio = core.Float(mean(returns) / sd * math.Sqrt(tradingDaysPerYear))
		}
	}
	if len(returns) >= 1 {
		set.MaxDrawdownPct = core.Float(maxDrawdown(returns) * 100)
	}

	if vols := series.Volumes(); len(vols) > 0 {
		set.AvgVolume = core.Float(mean(vols))
	}

	set.MA20 = lastWindowAvg(closes, 20)
	set.MA50 = lastWindowAvg(closes, 50)

	if benchmark != nil {
		set.BetaVsBenchmark = beta(series, benchmark)
	}

	return set
}

// cagr annualizes the total return over the elapsed calendar time. Falls
// back to trading-day counting when the observations carry no usable
// dates. Returns nil when the elapsed time is not positive.
func cagr(closes []float64, dates []time.Time) *float64 {
	n := len(closes)
	var years float64
	if !dates[0].IsZero() && !dates[n-1].IsZero() {
		years = dates[n-1].Sub(dates[0]).Hours() / 24 / 365.25
	}
	if years <= 0 {
		years = float64(n-1) / tradingDaysPerYear
	}
	if years <= 0 {
		return nil
	}
	total := closes[n-1] / closes[0]
	if total <= 0 {
		return nil
	}
	return core.Float((math.Pow(total, 1/years) - 1) * 100)
}

// dailyReturns computes simple returns between consecutive closes,
// skipping pairs where the prior close is zero.
func dailyReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	return returns
}

// maxDrawdown finds the largest decline from a running peak of the
// cumulative growth curve. The result is non-positive: 0 for a series
// that never dips below its running peak.
func maxDrawdown(returns []float64) float64 {
	var minDD float64
	cumulative := 1.0
	peak := 1.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := cumulative/peak - 1; dd < minDD {
			minDD = dd
		}
	}

	return minDD
}

// beta computes cov(asset, benchmark) / var(benchmark) over returns
// aligned on common dates. Returns nil with fewer than 2 overlapping
// points or zero benchmark variance.
func beta(series, benchmark *core.Series) *float64 {
	assetR := returnsByDate(series)
	benchR := returnsByDate(benchmark)

	var asset, bench []float64
	for date, ar := range assetR {
		if br, ok := benchR[date]; ok {
			asset = append(asset, ar)
			bench = append(bench, br)
		}
	}
	if len(asset) < 2 {
		return nil
	}

	assetMean := mean(asset)
	benchMean := mean(bench)

	var cov, benchVar float64
	for i := range asset {
		cov += (asset[i] - assetMean) * (bench[i] - benchMean)
		benchVar += (bench[i] - benchMean) * (bench[i] - benchMean)
	}
	if benchVar == 0 {
		return nil
	}
	return core.Float(cov / benchVar)
}

// returnsByDate maps each close date to the return since the previous
// valid close.
func returnsByDate(s *core.Series) map[string]float64 {
	closes, dates := s.Closes()
	result := make(map[string]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		result[dates[i].Format("2006-01-02")] = closes[i]/closes[i-1] - 1
	}
	return result
}

// lastWindowAvg averages the last `window` values, nil when the input is
// shorter than the window. No partial-window averages.
func lastWindowAvg(values []float64, window int) *float64 {
	if len(values) < window {
		return nil
	}
	return core.Float(mean(values[len(values)-window:]))
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev computes the standard deviation with the n-1 denominator.
func sampleStdDev(values []float64) float64 {
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
