package provider

import (
	"fmt"
	"sort"
	"time"

	"github.com/openfolio/pulse/internal/core"
)

// Normalize sorts bars into date-ascending order and verifies date
// uniqueness. A payload carrying the same date twice is a data-quality
// bug upstream, so the whole row set is rejected as malformed rather
// than silently overwriting one row with the other.
func Normalize(bars []core.Bar) ([]core.Bar, error) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	for i := 1; i < len(bars); i++ {
		if sameDay(bars[i].Date, bars[i-1].Date) {
			return nil, core.WrapError(core.ErrMalformedResponse,
				fmt.Errorf("duplicate date %s in payload", bars[i].Date.Format("2006-01-02")))
		}
	}
	return bars, nil
}

// Truncate drops bars older than the period's lookback window, counted
// back from now. A max period passes through untouched.
func Truncate(bars []core.Bar, period core.Period, now time.Time) []core.Bar {
	if period.Max() {
		return bars
	}
	cutoff := now.AddDate(0, 0, -period.Days)
	kept := bars[:0]
	for _, b := range bars {
		if !b.Date.Before(cutoff) {
			kept = append(kept, b)
		}
	}
	return kept
}

// Usable reports whether the bar has at least one numeric field. Rows
// that are missing across the board carry no information and are dropped
// during parsing.
func Usable(b core.Bar) bool {
	return b.Open != nil || b.High != nil || b.Low != nil || b.Close != nil || b.Volume != nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
