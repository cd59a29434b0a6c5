package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"etf-grid-backtest/internal/model"
)

// LoadCSV reads daily bars from a CSV file with a header row containing
// at least date, open, high, low and close columns, in any order.
func LoadCSV(path string) (model.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses bar rows from r.
func ReadCSV(r io.Reader) (model.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header: %v", model.ErrBadData, err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars model.Series
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrBadData, row, err)
		}
		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", model.ErrBadData, row, err)
		}
		bars = append(bars, bar)
	}
	if err := bars.Validate(); err != nil {
		return nil, err
	}
	return bars, nil
}

type barColumns struct {
	date, open, high, low, close int
}

func columnIndex(header []string) (barColumns, error) {
	cols := barColumns{date: -1, open: -1, high: -1, low: -1, close: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		}
	}
	if cols.date < 0 || cols.open < 0 || cols.high < 0 || cols.low < 0 || cols.close < 0 {
		return cols, fmt.Errorf("%w: header must contain date, open, high, low, close", model.ErrBadData)
	}
	return cols, nil
}

func parseBar(rec []string, cols barColumns) (model.Bar, error) {
	var bar model.Bar
	var err error
	if bar.Date, err = time.Parse("2006-01-02", rec[cols.date]); err != nil {
		return bar, err
	}
	if bar.Open, err = strconv.ParseFloat(rec[cols.open], 64); err != nil {
		return bar, err
	}
	if bar.High, err = strconv.ParseFloat(rec[cols.high], 64); err != nil {
		return bar, err
	}
	if bar.Low, err = strconv.ParseFloat(rec[cols.low], 64); err != nil {
		return bar, err
	}
	if bar.Close, err = strconv.ParseFloat(rec[cols.close], 64); err != nil {
		return bar, err
	}
	return bar, nil
}
