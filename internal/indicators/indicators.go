// Package indicators implements the technical indicators the analyzer
// uses to size grids and judge whether a series suits grid trading.
// Warm-up positions are NaN so callers can tell "no value yet" apart
// from a genuine zero.
package indicators

import (
	"math"

	"etf-grid-backtest/internal/model"
)

const (
	// DefaultATRPeriod is the lookback used for grid spacing.
	DefaultATRPeriod = 14

	DefaultBollingerPeriod = 20
	DefaultBollingerStd    = 1.8
	DefaultADXPeriod       = 14
)

// TrueRange returns the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and falls back to high-low.
func TrueRange(bars model.Series) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		pc := bars[i-1].Close
		tr[i] = math.Max(hl, math.Max(math.Abs(b.High-pc), math.Abs(b.Low-pc)))
	}
	return tr
}

// ATR is the simple moving average of the true range.
func ATR(bars model.Series, period int) []float64 {
	return rollingMean(TrueRange(bars), period)
}

// LatestATR returns the most recent ATR value, or 0 when the series is
// too short for one.
func LatestATR(bars model.Series, period int) float64 {
	atr := ATR(bars, period)
	if len(atr) == 0 {
		return 0
	}
	last := atr[len(atr)-1]
	if math.IsNaN(last) {
		return 0
	}
	return last
}

// AmplitudeAvg averages (high-low)/prevClose over the last window bars.
func AmplitudeAvg(bars model.Series, window int) float64 {
	if len(bars) < 2 {
		return 0
	}
	start := len(bars) - window
	if start < 1 {
		start = 1
	}
	sum, n := 0.0, 0
	for i := start; i < len(bars); i++ {
		pc := bars[i-1].Close
		if pc == 0 {
			continue
		}
		sum += (bars[i].High - bars[i].Low) / pc
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Bollinger returns the upper, middle and lower bands over closes.
func Bollinger(closes []float64, period int, numStd float64) (upper, mid, lower []float64) {
	mid = rollingMean(closes, period)
	std := rollingStddev(closes, period)
	upper = make([]float64, len(closes))
	lower = make([]float64, len(closes))
	for i := range closes {
		upper[i] = mid[i] + numStd*std[i]
		lower[i] = mid[i] - numStd*std[i]
	}
	return upper, mid, lower
}

// ADX measures trend strength on a 0-100 scale. Directional movement is
// smoothed with simple moving averages rather than Wilder smoothing,
// matching the rest of this package.
func ADX(bars model.Series, period int) []float64 {
	n := len(bars)
	adx := nanSlice(n)
	if n < 2 {
		return adx
	}

	atr := ATR(bars, period)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	plusSMA := rollingMean(plusDM, period)
	minusSMA := rollingMean(minusDM, period)
	dx := nanSlice(n)
	for i := range dx {
		if math.IsNaN(atr[i]) || atr[i] == 0 {
			continue
		}
		pdi := 100 * plusSMA[i] / atr[i]
		mdi := 100 * minusSMA[i] / atr[i]
		if pdi+mdi != 0 {
			dx[i] = 100 * math.Abs(pdi-mdi) / (pdi + mdi)
		}
	}
	return rollingMean(dx, period)
}

// DailyReturns returns close-to-close percentage changes; index 0 is NaN.
func DailyReturns(closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return out
}

// RollingVolatility is the rolling sample stddev of daily returns,
// annualised and expressed in percent.
func RollingVolatility(closes []float64, window int) []float64 {
	std := rollingStddev(DailyReturns(closes), window)
	out := make([]float64, len(std))
	for i, s := range std {
		out[i] = s * math.Sqrt(252) * 100
	}
	return out
}

// rollingMean mirrors a pandas rolling mean: the window must be full and
// NaN-free, otherwise the output is NaN.
func rollingMean(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(xs); i++ {
		sum, ok := 0.0, true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func rollingStddev(xs []float64, period int) []float64 {
	out := nanSlice(len(xs))
	if period <= 1 {
		return out
	}
	for i := period - 1; i < len(xs); i++ {
		window := xs[i-period+1 : i+1]
		mean, ok := 0.0, true
		for _, x := range window {
			if math.IsNaN(x) {
				ok = false
				break
			}
			mean += x
		}
		if !ok {
			continue
		}
		mean /= float64(period)
		ss := 0.0
		for _, x := range window {
			d := x - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
