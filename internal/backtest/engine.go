package backtest

import (
	"fmt"

	"etf-grid-backtest/internal/grid"
	"etf-grid-backtest/internal/model"
)

// GridSpec describes how the engine should lay out the price grid.
// Step takes precedence when positive; otherwise StepPercent is used.
// BasePrice 0 means "first bar's close"; TradeSize 0 means capital-split
// sizing.
type GridSpec struct {
	Count       int
	Step        float64
	StepPercent float64
	BasePrice   float64
	TradeSize   int
}

// Engine drives one backtest: grid generation, bar replay through the
// executor, per-bar accounting, and evaluation. It is a pure function of
// its inputs; two identical runs produce bit-identical results.
type Engine struct {
	InitialCapital float64
	FeeRate        float64
	Weights        ScoreWeights
}

func NewEngine(initialCapital, feeRate float64) *Engine {
	return &Engine{
		InitialCapital: initialCapital,
		FeeRate:        feeRate,
		Weights:        DefaultScoreWeights(),
	}
}

// Run executes a full backtest for one grid spec.
func (e *Engine) Run(bars model.Series, spec GridSpec) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: empty bar series", grid.ErrInvalidSpec)
	}
	if err := bars.Validate(); err != nil {
		return nil, err
	}

	ref := spec.BasePrice
	if ref == 0 {
		ref = bars[0].Close
	}
	step := spec.Step
	if step == 0 {
		step = ref * spec.StepPercent / 100
	}

	gen := grid.NewGenerator(e.InitialCapital, e.FeeRate)
	levels, percent, err := gen.ByStep(ref, step, spec.Count, spec.TradeSize)
	if err != nil {
		return nil, err
	}

	exec := NewExecutor(levels, e.FeeRate, e.InitialCapital)

	var trades []Trade
	base, err := exec.EstablishBase(bars[0])
	if err != nil {
		return nil, err
	}
	if base != nil {
		trades = append(trades, *base)
	}

	equity := make([]EquityRow, 0, len(bars))
	equity = append(equity, snapshot(exec, bars[0], 0))

	for i := 1; i < len(bars); i++ {
		fills, err := exec.ProcessBar(bars[i])
		if err != nil {
			return nil, err
		}
		trades = append(trades, fills...)

		prevTV := equity[i-1].TotalValue
		row := snapshot(exec, bars[i], 0)
		if prevTV != 0 {
			row.DailyReturn = (row.TotalValue - prevTV) / prevTV
		}
		equity = append(equity, row)
	}

	metrics := Evaluate(equity, trades, exec.RealizedProfit(), e.InitialCapital, e.Weights)
	metrics.BenchmarkTotalReturn, metrics.BenchmarkAnnualReturn,
		metrics.BenchmarkMaxDrawdown, metrics.BenchmarkSharpeRatio = EvaluateBenchmark(bars.Closes())

	return &Result{
		Params: Params{
			GridCount:      spec.Count,
			Step:           step,
			SpacingPercent: percent,
			BasePrice:      ref,
			TradeSize:      spec.TradeSize,
			InitialCapital: e.InitialCapital,
			FeeRate:        e.FeeRate,
		},
		Trades:  trades,
		Equity:  equity,
		Grids:   exec.Levels(),
		Metrics: metrics,
	}, nil
}

// RunManual is the explicit-spacing entry point: percent spacing plus
// optional base price and per-level trade size overrides.
func (e *Engine) RunManual(bars model.Series, percent float64, count int, basePrice float64, tradeSize int) (*Result, error) {
	return e.Run(bars, GridSpec{
		Count:       count,
		StepPercent: percent,
		BasePrice:   basePrice,
		TradeSize:   tradeSize,
	})
}

func snapshot(exec *Executor, bar model.Bar, dailyReturn float64) EquityRow {
	posValue := float64(exec.Position()) * bar.Close
	return EquityRow{
		Date:          bar.Date.Format("2006-01-02"),
		Cash:          exec.Cash(),
		Position:      exec.Position(),
		PositionValue: posValue,
		TotalValue:    exec.Cash() + posValue,
		DailyReturn:   dailyReturn,
	}
}
