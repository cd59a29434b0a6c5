package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteTradesCSV dumps the trade list for inspection in a spreadsheet.
func WriteTradesCSV(path string, trades []Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"date", "side", "price", "shares", "grid_index", "cash", "position", "position_value", "total_value"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range trades {
		row := []string{
			t.Date,
			string(t.Side),
			fmtFloat(t.Price),
			strconv.Itoa(t.Shares),
			strconv.Itoa(t.GridIndex),
			fmtFloat(t.Cash),
			strconv.Itoa(t.Position),
			fmtFloat(t.PositionValue),
			fmtFloat(t.TotalValue),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteEquityCSV dumps the per-bar equity curve.
func WriteEquityCSV(path string, equity []EquityRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"date", "cash", "position", "position_value", "total_value", "daily_return"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range equity {
		row := []string{
			r.Date,
			fmtFloat(r.Cash),
			strconv.Itoa(r.Position),
			fmtFloat(r.PositionValue),
			fmtFloat(r.TotalValue),
			fmtFloat(r.DailyReturn),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
