// Package data loads and stores daily bar history: column-oriented JSON,
// CSV exports and a SQLite store, plus a small in-memory cache for the
// API layer.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"etf-grid-backtest/internal/model"
)

// History is the column-oriented JSON shape produced by the data
// importers: parallel arrays keyed by field.
type History struct {
	Symbol string    `json:"symbol,omitempty"`
	Dates  []string  `json:"dates"`
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
}

// Series converts the columns into a validated bar series.
func (h *History) Series() (model.Series, error) {
	dates := make([]time.Time, len(h.Dates))
	for i, d := range h.Dates {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q at row %d", model.ErrBadData, d, i)
		}
		dates[i] = t
	}
	return model.SeriesFromColumns(dates, h.Open, h.High, h.Low, h.Close)
}

// HistoryFromSeries builds the column shape back from a series, for
// JSON export.
func HistoryFromSeries(symbol string, bars model.Series) *History {
	h := &History{
		Symbol: symbol,
		Dates:  make([]string, len(bars)),
		Open:   make([]float64, len(bars)),
		High:   make([]float64, len(bars)),
		Low:    make([]float64, len(bars)),
		Close:  make([]float64, len(bars)),
	}
	for i, b := range bars {
		h.Dates[i] = b.Date.Format("2006-01-02")
		h.Open[i] = b.Open
		h.High[i] = b.High
		h.Low[i] = b.Low
		h.Close[i] = b.Close
	}
	return h
}

// LoadHistoryJSON reads a column-oriented history file.
func LoadHistoryJSON(path string) (model.Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var h History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return h.Series()
}
