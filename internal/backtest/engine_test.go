package backtest

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-grid-backtest/internal/grid"
	"etf-grid-backtest/internal/model"
)

func testSpec() GridSpec {
	return GridSpec{Count: 3, StepPercent: 5, BasePrice: 10, TradeSize: 100}
}

func TestEngineFlatSeries(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{flatBar(1, 10), flatBar(2, 10), flatBar(3, 10)}

	res, err := e.Run(bars, testSpec())
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, Buy, res.Trades[0].Side)
	assert.Equal(t, 200, res.Trades[0].Shares)

	require.Len(t, res.Equity, 3)
	for _, row := range res.Equity {
		assert.Equal(t, 8000.0, row.Cash)
		assert.Equal(t, 200, row.Position)
		assert.InDelta(t, 10000.0, row.TotalValue, 1e-9)
		assert.Zero(t, row.DailyReturn)
	}
	assert.Zero(t, res.Metrics.TotalReturn)
	assert.Zero(t, res.Metrics.MaxDrawdown)
}

func TestEngineGridLayout(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{flatBar(1, 10), flatBar(2, 10)}

	res, err := e.Run(bars, testSpec())
	require.NoError(t, err)

	require.Len(t, res.Grids, 3)
	assert.InDelta(t, 9.5, res.Grids[0].Price, 1e-9)
	assert.InDelta(t, 10.0, res.Grids[1].Price, 1e-9)
	assert.InDelta(t, 10.5, res.Grids[2].Price, 1e-9)
	assert.InDelta(t, 0.5, res.Params.Step, 1e-9)
	assert.InDelta(t, 5.0, res.Params.SpacingPercent, 1e-9)
	assert.Equal(t, 10.0, res.Params.BasePrice)
}

func TestEngineDefaultsReferenceToFirstClose(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{mkBar(1, 9.8, 10.1, 9.7, 10), flatBar(2, 10)}

	res, err := e.Run(bars, GridSpec{Count: 3, StepPercent: 5, TradeSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Params.BasePrice)
}

func TestEngineDownThenUp(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{
		flatBar(1, 10),
		mkBar(2, 10, 10, 9.4, 9.5),
		mkBar(3, 9.5, 10.1, 9.5, 10.1),
	}

	res, err := e.Run(bars, testSpec())
	require.NoError(t, err)

	// Base buy, day-2 buy at 9.5, day-3 sell of that batch at 10.0.
	require.Len(t, res.Trades, 3)
	assert.Equal(t, Buy, res.Trades[1].Side)
	assert.Equal(t, 9.5, res.Trades[1].Price)
	assert.Equal(t, Sell, res.Trades[2].Side)
	assert.Equal(t, 10.0, res.Trades[2].Price)

	// The round trip banks one grid spacing on 100 shares.
	assert.InDelta(t, 50.0, res.Metrics.RealizedProfit, 1e-9)
	assert.Equal(t, 3, res.Metrics.TradeCount)
}

func TestEngineDeterministic(t *testing.T) {
	e := NewEngine(100000, 0.0001)
	bars := model.Series{
		flatBar(1, 10),
		mkBar(2, 10, 10, 9.4, 9.5),
		mkBar(3, 9.5, 10.6, 9.5, 10.6),
		mkBar(4, 10.6, 11.2, 8.9, 9.0),
		mkBar(5, 9.0, 10.1, 9.0, 10.0),
	}
	spec := GridSpec{Count: 5, StepPercent: 5, BasePrice: 10, TradeSize: 100}

	a, err := e.Run(bars, spec)
	require.NoError(t, err)
	b, err := e.Run(bars, spec)
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(a, b), "identical inputs must replay identically")
}

func TestEngineRejectsBadInput(t *testing.T) {
	e := NewEngine(10000, 0)

	_, err := e.Run(nil, testSpec())
	assert.ErrorIs(t, err, grid.ErrInvalidSpec)

	bars := model.Series{flatBar(1, 10), flatBar(2, 10)}
	_, err = e.Run(bars, GridSpec{Count: 2, StepPercent: 5, BasePrice: 10})
	assert.ErrorIs(t, err, grid.ErrInvalidSpec)

	// Dates out of order.
	bad := model.Series{flatBar(2, 10), flatBar(1, 10)}
	_, err = e.Run(bad, testSpec())
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestEngineInsufficientCapital(t *testing.T) {
	e := NewEngine(100, 0)
	bars := model.Series{flatBar(1, 10), flatBar(2, 10)}
	_, err := e.Run(bars, testSpec())
	assert.ErrorIs(t, err, ErrInsufficientCapital)
}

func TestRunManual(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{flatBar(1, 10), flatBar(2, 10)}

	res, err := e.RunManual(bars, 5, 3, 10, 100)
	require.NoError(t, err)
	require.Len(t, res.Grids, 3)
	assert.InDelta(t, 9.5, res.Grids[0].Price, 1e-9)
	assert.InDelta(t, 10.5, res.Grids[2].Price, 1e-9)
}

func TestEngineDailyReturns(t *testing.T) {
	e := NewEngine(10000, 0)
	bars := model.Series{
		flatBar(1, 10),
		mkBar(2, 10, 10, 9.4, 9.5),
	}

	res, err := e.Run(bars, testSpec())
	require.NoError(t, err)
	require.Len(t, res.Equity, 2)
	assert.Zero(t, res.Equity[0].DailyReturn)
	assert.InDelta(t, (9900.0-10000.0)/10000.0, res.Equity[1].DailyReturn, 1e-12)
}
