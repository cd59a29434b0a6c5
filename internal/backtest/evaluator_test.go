package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equityFromValues(values []float64) []EquityRow {
	rows := make([]EquityRow, len(values))
	for i, v := range values {
		rows[i] = EquityRow{TotalValue: v, Cash: v}
		if i > 0 && values[i-1] != 0 {
			rows[i].DailyReturn = (v - values[i-1]) / values[i-1]
		}
	}
	return rows
}

func TestEvaluateEmpty(t *testing.T) {
	m := Evaluate(nil, nil, 0, 10000, DefaultScoreWeights())
	assert.Zero(t, m.TotalReturn)
	assert.Zero(t, m.AnnualReturn)
	assert.Zero(t, m.Score)
}

func TestEvaluateTotalAndAnnualReturn(t *testing.T) {
	rows := equityFromValues([]float64{10000, 10100, 10200, 10300})
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())

	assert.InDelta(t, 0.03, m.TotalReturn, 1e-12)
	want := math.Pow(1.03, 252.0/4.0) - 1
	assert.InDelta(t, want, m.AnnualReturn, 1e-12)
	// Default weights make the score equal to annualised return.
	assert.InDelta(t, m.AnnualReturn, m.Score, 1e-12)
}

func TestEvaluateSingleRow(t *testing.T) {
	rows := equityFromValues([]float64{10000})
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())
	assert.Zero(t, m.AnnualReturn, "one bar is not annualisable")
	assert.Zero(t, m.DailyVolatility)
	assert.Zero(t, m.SharpeRatio)
}

func TestEvaluateTotalLoss(t *testing.T) {
	rows := equityFromValues([]float64{10000, 5000, 0})
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())
	assert.InDelta(t, -1.0, m.TotalReturn, 1e-12)
	assert.Equal(t, -1.0, m.AnnualReturn)
	assert.InDelta(t, 1.0, m.MaxDrawdown, 1e-12)
}

func TestMaxDrawdownRunningPeak(t *testing.T) {
	// Peak 12000, trough 9000 after the peak: drawdown 25%, not the
	// 10% dip at the start.
	rows := equityFromValues([]float64{10000, 9000, 12000, 9000, 11000})
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())
	assert.InDelta(t, 0.25, m.MaxDrawdown, 1e-12)
}

func TestEvaluateVolatilityAndSharpe(t *testing.T) {
	rows := equityFromValues([]float64{10000, 10100, 10000, 10100, 10000})
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())

	require.Greater(t, m.DailyVolatility, 0.0)
	assert.InDelta(t, m.DailyVolatility*math.Sqrt(252), m.AnnualVolatility, 1e-12)
	assert.InDelta(t, (m.AnnualReturn-0.02)/m.AnnualVolatility, m.SharpeRatio, 1e-12)
}

func TestEvaluateCapitalUtilization(t *testing.T) {
	rows := []EquityRow{
		{Cash: 5000, PositionValue: 5000, TotalValue: 10000},
		{Cash: 2500, PositionValue: 7500, TotalValue: 10000},
	}
	m := Evaluate(rows, nil, 0, 10000, DefaultScoreWeights())
	assert.InDelta(t, 0.625, m.CapitalUtilization, 1e-12)
}

func TestEvaluateRealizedAndFloatSplit(t *testing.T) {
	rows := equityFromValues([]float64{10000, 10500})
	m := Evaluate(rows, nil, 300, 10000, DefaultScoreWeights())
	assert.Equal(t, 300.0, m.RealizedProfit)
	assert.InDelta(t, 200.0, m.FloatPnL, 1e-9)
}

func TestScoreWeighting(t *testing.T) {
	rows := equityFromValues([]float64{10000, 9000, 10300})
	w := ScoreWeights{AnnualReturn: 0.5, MaxDrawdown: 0.5}
	m := Evaluate(rows, nil, 0, 10000, w)
	assert.InDelta(t, 0.5*m.AnnualReturn-0.5*m.MaxDrawdown, m.Score, 1e-12)
}

func TestEvaluateBenchmark(t *testing.T) {
	closes := []float64{10, 11, 10, 12}
	total, annual, drawdown, sharpe := EvaluateBenchmark(closes)

	assert.InDelta(t, 0.2, total, 1e-12)
	assert.InDelta(t, math.Pow(1.2, 252.0/4.0)-1, annual, 1e-12)
	assert.InDelta(t, 1.0/11.0, drawdown, 1e-12)
	assert.NotZero(t, sharpe)
}

func TestEvaluateBenchmarkEmpty(t *testing.T) {
	total, annual, drawdown, sharpe := EvaluateBenchmark(nil)
	assert.Zero(t, total)
	assert.Zero(t, annual)
	assert.Zero(t, drawdown)
	assert.Zero(t, sharpe)
}
