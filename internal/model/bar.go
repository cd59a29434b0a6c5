package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrBadData marks a malformed bar series (NaN values, unordered or
// duplicated dates, ragged columns).
var ErrBadData = errors.New("bad bar data")

// Bar is one day's open/high/low/close record. Input bars are immutable;
// the simulator never writes to them.
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Series is an ordered run of daily bars, ascending by date.
type Series []Bar

// SeriesFromColumns assembles a Series from column-oriented history data,
// the shape the surrounding data loaders produce. All slices must have
// equal length.
func SeriesFromColumns(dates []time.Time, open, high, low, closes []float64) (Series, error) {
	n := len(dates)
	if len(open) != n || len(high) != n || len(low) != n || len(closes) != n {
		return nil, fmt.Errorf("%w: column lengths differ (dates=%d open=%d high=%d low=%d close=%d)",
			ErrBadData, n, len(open), len(high), len(low), len(closes))
	}
	s := make(Series, n)
	for i := 0; i < n; i++ {
		s[i] = Bar{
			Date:  dates[i],
			Open:  open[i],
			High:  high[i],
			Low:   low[i],
			Close: closes[i],
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the series invariants: strictly ascending dates and
// finite OHLC values.
func (s Series) Validate() error {
	for i, b := range s {
		if hasNaN(b) {
			return fmt.Errorf("%w: NaN in OHLC at bar %d (%s)", ErrBadData, i, b.Date.Format("2006-01-02"))
		}
		if i > 0 && !s[i-1].Date.Before(b.Date) {
			return fmt.Errorf("%w: dates not strictly ascending at bar %d (%s)", ErrBadData, i, b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Closes returns the close column, used for benchmark metrics.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

func hasNaN(b Bar) bool {
	return math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close)
}
