package backtest

import "etf-grid-backtest/internal/model"

// Params records the configuration a backtest actually ran with.
type Params struct {
	GridCount      int     `json:"grid_count"`
	Step           float64 `json:"step"`
	SpacingPercent float64 `json:"spacing_percent"`
	ATRFactor      float64 `json:"atr_factor,omitempty"`
	BasePrice      float64 `json:"base_price"`
	TradeSize      int     `json:"trade_size,omitempty"`
	InitialCapital float64 `json:"initial_capital"`
	FeeRate        float64 `json:"fee_rate"`
}

// EquityRow is the per-bar account snapshot, written once per bar after
// fills have settled. DailyReturn is 0 on the first bar.
type EquityRow struct {
	Date          string  `json:"date"`
	Cash          float64 `json:"cash"`
	Position      int     `json:"position"`
	PositionValue float64 `json:"position_value"`
	TotalValue    float64 `json:"total_value"`
	DailyReturn   float64 `json:"daily_return"`
}

// Result is the full output of one backtest run.
type Result struct {
	Params  Params            `json:"params"`
	Trades  []Trade           `json:"trades"`
	Equity  []EquityRow       `json:"equity"`
	Grids   []model.GridLevel `json:"grids"`
	Metrics Metrics           `json:"metrics"`
}
