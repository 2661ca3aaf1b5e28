package indicator

import (
	"time"

	"github.com/openfolio/pulse/internal/core"
)

// Point is one value of an overlay line, aligned to a bar date.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Overlay computes a rolling SMA line over the series' valid closes for
// chart rendering. The line starts at the first date with a full window;
// a series shorter than the window yields an empty slice.
func Overlay(series *core.Series, window int) []Point {
	return overlay(series, window, SMA)
}

// OverlayEMA computes an exponential moving average line with the same
// date alignment as Overlay.
func OverlayEMA(series *core.Series, window int) []Point {
	return overlay(series, window, EMA)
}

func overlay(series *core.Series, window int, line func([]float64, int) []float64) []Point {
	closes, dates := series.Closes()
	values := line(closes, window)
	if len(values) == 0 {
		return []Point{}
	}

	points := make([]Point, len(values))
	offset := len(closes) - len(values)
	for i, v := range values {
		points[i] = Point{Date: dates[offset+i], Value: v}
	}
	return points
}
