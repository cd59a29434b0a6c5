package analysis

import (
	"errors"
	"math"

	"etf-grid-backtest/internal/indicators"
	"etf-grid-backtest/internal/model"
)

// ErrSeriesTooShort is returned when the series cannot support the
// indicator warm-up the suitability screen needs.
var ErrSeriesTooShort = errors.New("analysis: series too short for suitability screening")

// minSuitabilityBars leaves room for the ADX double smoothing.
const minSuitabilityBars = 45

// Suitability score bands and thresholds.
const (
	volatilityLow  = 10.0
	volatilityHigh = 30.0

	adxIdealLow  = 15.0
	adxIdealHigh = 25.0

	oscillationLow  = 0.4
	oscillationHigh = 0.8

	atrRatioCap = 0.1

	suitableThreshold = 70.0
	cautionThreshold  = 50.0
)

// SuitabilityScores breaks the verdict into its four dimensions, each on
// a 0-100 scale.
type SuitabilityScores struct {
	Volatility  float64 `json:"volatility_score"`
	Trend       float64 `json:"trend_score"`
	Oscillation float64 `json:"oscillation_score"`
	Safety      float64 `json:"safety_score"`
}

// Suitability is the verdict on whether a series suits grid trading.
type Suitability struct {
	Suitable  bool              `json:"suitable"`
	Composite float64           `json:"composite_score"`
	Scores    SuitabilityScores `json:"scores"`
	ATR       float64           `json:"atr"`
	Verdict   string            `json:"verdict"`
}

// EvaluateSuitability screens a series for grid-trading fitness: enough
// volatility to harvest, weak trend, range-bound closes and a contained
// ATR relative to price.
func EvaluateSuitability(bars model.Series) (*Suitability, error) {
	if err := bars.Validate(); err != nil {
		return nil, err
	}
	if len(bars) < minSuitabilityBars {
		return nil, ErrSeriesTooShort
	}

	closes := bars.Closes()
	recent := len(bars)
	if recent > 252 {
		recent = 252
	}
	cut := len(bars) - recent

	vol := indicators.RollingVolatility(closes, volatilityWindow(len(bars)))
	adx := indicators.ADX(bars, indicators.DefaultADXPeriod)
	upper, _, lower := indicators.Bollinger(closes, indicators.DefaultBollingerPeriod, indicators.DefaultBollingerStd)
	atrSeries := indicators.ATR(bars, indicators.DefaultATRPeriod)

	scores := SuitabilityScores{
		Volatility:  100 * normalize(nanMean(vol[cut:]), volatilityLow, volatilityHigh),
		Trend:       trendScore(nanMean(tail(adx, 20))),
		Oscillation: 100 * normalize(inBandRatio(closes[cut:], upper[cut:], lower[cut:]), oscillationLow, oscillationHigh),
		Safety:      safetyScore(atrSeries[len(atrSeries)-1], closes[len(closes)-1]),
	}

	composite := 0.3*scores.Volatility + 0.3*scores.Trend +
		0.25*scores.Oscillation + 0.15*scores.Safety

	s := &Suitability{
		Suitable:  composite >= suitableThreshold,
		Composite: composite,
		Scores:    scores,
		ATR:       indicators.LatestATR(bars, indicators.DefaultATRPeriod),
	}
	switch {
	case composite >= suitableThreshold:
		s.Verdict = "well suited to grid trading"
	case composite >= cautionThreshold:
		s.Verdict = "marginal; tune parameters before grid trading"
	default:
		s.Verdict = "not suited to grid trading"
	}
	return s, nil
}

// volatilityWindow widens the rolling window with the amount of history,
// so multi-year series are not judged on a single noisy month.
func volatilityWindow(n int) int {
	switch {
	case n <= 252:
		return 20
	case n <= 504:
		return 40
	case n <= 756:
		return 60
	default:
		return 100
	}
}

// trendScore rewards ADX in the ideal band: too low means the series is
// dead, too high means it trends too hard to range-trade.
func trendScore(adx float64) float64 {
	if math.IsNaN(adx) {
		return 0
	}
	switch {
	case adx <= adxIdealLow:
		return 60 * adx / adxIdealLow
	case adx <= adxIdealHigh:
		return 60 + 40*(adx-adxIdealLow)/(adxIdealHigh-adxIdealLow)
	default:
		return math.Max(0, 100-20*(adx-adxIdealHigh)/adxIdealHigh)
	}
}

func safetyScore(atr, close float64) float64 {
	if math.IsNaN(atr) || close == 0 {
		return 0
	}
	return 100 - 100*normalize(atr/close, 0, atrRatioCap)
}

// inBandRatio counts closes inside the Bollinger envelope; bars whose
// bands have not warmed up count as outside.
func inBandRatio(closes, upper, lower []float64) float64 {
	if len(closes) == 0 {
		return 0
	}
	in := 0
	for i := range closes {
		if math.IsNaN(upper[i]) || math.IsNaN(lower[i]) {
			continue
		}
		if closes[i] <= upper[i] && closes[i] >= lower[i] {
			in++
		}
	}
	return float64(in) / float64(len(closes))
}

func normalize(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return 0
	}
	if v > hi {
		return 1
	}
	return (v - lo) / (hi - lo)
}

func nanMean(xs []float64) float64 {
	sum, n := 0.0, 0
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}
