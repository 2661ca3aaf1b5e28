package core

import "time"

// Bar represents one daily OHLCV record. Numeric fields are pointers so a
// value a provider could not parse is carried as an explicit nil rather
// than a zero that looks like a real price.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   *float64  `json:"open"`
	High   *float64  `json:"high"`
	Low    *float64  `json:"low"`
	Close  *float64  `json:"close"`
	Volume *float64  `json:"volume"`
}

// Series is a date-ascending sequence of daily bars for one symbol.
// A Series with zero bars is a valid "empty" value; "no data available"
// is expressed by a nil *Series at the call site, never by an error.
type Series struct {
	Symbol string `json:"symbol"`
	Source string `json:"source"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.Bars)
}

// IsEmpty reports whether the series has no bars.
func (s *Series) IsEmpty() bool {
	return len(s.Bars) == 0
}

// Closes returns the close values of all bars with a usable close,
// in date order, together with the matching dates.
func (s *Series) Closes() ([]float64, []time.Time) {
	closes := make([]float64, 0, len(s.Bars))
	dates := make([]time.Time, 0, len(s.Bars))
	for _, b := range s.Bars {
		if b.Close == nil {
			continue
		}
		closes = append(closes, *b.Close)
		dates = append(dates, b.Date)
	}
	return closes, dates
}

// Volumes returns all non-nil volume values in date order.
func (s *Series) Volumes() []float64 {
	vols := make([]float64, 0, len(s.Bars))
	for _, b := range s.Bars {
		if b.Volume != nil {
			vols = append(vols, *b.Volume)
		}
	}
	return vols
}

// Float returns a pointer to v. Convenience for building bars.
func Float(v float64) *float64 {
	return &v
}
