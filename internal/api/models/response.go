package models

import (
	"etf-grid-backtest/internal/analysis"
	"etf-grid-backtest/internal/backtest"
	"etf-grid-backtest/internal/model"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	Status  string                `json:"status"`
	Params  backtest.Params       `json:"params"`
	Metrics backtest.Metrics      `json:"metrics"`
	Grids   []model.GridLevel     `json:"grids"`
	Trades  []backtest.Trade      `json:"trades,omitempty"`
	Equity  []backtest.EquityRow  `json:"equity,omitempty"`
}

// NewBacktestResponse trims a result to the requested payload.
func NewBacktestResponse(res *backtest.Result, opts BacktestOptions) BacktestResponse {
	out := BacktestResponse{
		Status:  "completed",
		Params:  res.Params,
		Metrics: res.Metrics,
		Grids:   res.Grids,
	}
	if opts.IncludeTrades {
		out.Trades = res.Trades
	}
	if opts.IncludeEquity {
		out.Equity = res.Equity
	}
	return out
}

// SweepResponse represents the response from a parameter sweep
type SweepResponse struct {
	Status    string                  `json:"status"`
	ATR       float64                 `json:"atr"`
	Evaluated int                     `json:"evaluated"`
	Top       []BacktestResponse      `json:"top"`
	Failures  []analysis.ComboFailure `json:"failures,omitempty"`
}

// SuitabilityResponse wraps the suitability verdict.
type SuitabilityResponse struct {
	Status string                `json:"status"`
	Result *analysis.Suitability `json:"result"`
}

// SymbolsResponse lists the symbols available in the bar store.
type SymbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
