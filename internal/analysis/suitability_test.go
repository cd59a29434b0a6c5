package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-grid-backtest/internal/model"
)

func TestSuitabilityRejectsShortSeries(t *testing.T) {
	_, err := EvaluateSuitability(oscillatingSeries(minSuitabilityBars - 1))
	assert.ErrorIs(t, err, ErrSeriesTooShort)
}

func TestSuitabilityRejectsBadData(t *testing.T) {
	bars := oscillatingSeries(60)
	bars[10].Close = math.NaN()
	_, err := EvaluateSuitability(bars)
	assert.ErrorIs(t, err, model.ErrBadData)
}

func TestSuitabilityRangeBoundSeries(t *testing.T) {
	s, err := EvaluateSuitability(oscillatingSeries(120))
	require.NoError(t, err)

	assert.Greater(t, s.ATR, 0.0)
	assert.NotEmpty(t, s.Verdict)
	for _, v := range []float64{s.Scores.Volatility, s.Scores.Trend, s.Scores.Oscillation, s.Scores.Safety, s.Composite} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	// A tight oscillation stays inside the Bollinger envelope and has a
	// small ATR relative to price.
	assert.Greater(t, s.Scores.Oscillation, 50.0)
	assert.Greater(t, s.Scores.Safety, 50.0)
}

func TestTrendScoreBands(t *testing.T) {
	assert.Zero(t, trendScore(0))
	assert.InDelta(t, 60.0, trendScore(adxIdealLow), 1e-9)
	assert.InDelta(t, 100.0, trendScore(adxIdealHigh), 1e-9)
	assert.Less(t, trendScore(60), trendScore(adxIdealHigh))
	assert.Zero(t, trendScore(200))
	assert.Zero(t, trendScore(math.NaN()))
}

func TestNormalizeClamps(t *testing.T) {
	assert.Zero(t, normalize(5, 10, 30))
	assert.Equal(t, 1.0, normalize(40, 10, 30))
	assert.InDelta(t, 0.5, normalize(20, 10, 30), 1e-9)
	assert.Zero(t, normalize(math.NaN(), 10, 30))
}
