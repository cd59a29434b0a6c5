package models

import (
	"etf-grid-backtest/internal/backtest"
	"etf-grid-backtest/internal/data"
)

// DataSourceConfig defines where the bar history comes from: either
// inline column data or a symbol looked up in the bar store.
type DataSourceConfig struct {
	History   *data.History `json:"history,omitempty"`
	Symbol    string        `json:"symbol,omitempty"`
	StartDate string        `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string        `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// GridParams overrides the server's default grid layout per request.
type GridParams struct {
	Count       int     `json:"count,omitempty"`
	Step        float64 `json:"step,omitempty"`
	StepPercent float64 `json:"step_percent,omitempty"`
	BasePrice   float64 `json:"base_price,omitempty"`
	TradeSize   int     `json:"trade_size,omitempty"`
}

// AccountParams overrides the server's default account settings.
type AccountParams struct {
	InitialCapital float64  `json:"initial_capital,omitempty"`
	FeeRate        *float64 `json:"fee_rate,omitempty"`
}

// BacktestOptions trims the response payload.
type BacktestOptions struct {
	IncludeTrades bool `json:"include_trades,omitempty"`
	IncludeEquity bool `json:"include_equity,omitempty"`
}

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Grid       *GridParams      `json:"grid,omitempty"`
	Account    *AccountParams   `json:"account,omitempty"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// ManualBacktestRequest runs a backtest with an explicit percent spacing.
type ManualBacktestRequest struct {
	DataSource     DataSourceConfig `json:"data_source" binding:"required"`
	SpacingPercent float64          `json:"spacing_percent" binding:"required"`
	Count          int              `json:"count,omitempty"`
	BasePrice      float64          `json:"base_price,omitempty"`
	TradeSize      int              `json:"trade_size,omitempty"`
	Account        *AccountParams   `json:"account,omitempty"`
	Options        BacktestOptions  `json:"options,omitempty"`
}

// SweepRequest searches the parameter space over one series.
type SweepRequest struct {
	DataSource DataSourceConfig       `json:"data_source" binding:"required"`
	ATR        float64                `json:"atr,omitempty"` // 0 = derive from the series
	TopN       int                    `json:"top_n,omitempty"`
	Weights    *backtest.ScoreWeights `json:"weights,omitempty"`
	Account    *AccountParams         `json:"account,omitempty"`
}

// SuitabilityRequest screens one series for grid-trading fitness.
type SuitabilityRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
}
