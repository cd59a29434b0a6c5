package backtest

import "math"

const (
	tradingDaysPerYear = 252
	riskFreeRate       = 0.02
)

// ScoreWeights configures the composite score used to rank parameter
// combinations. The defaults put all weight on annualised return, so the
// score reduces to that single metric.
type ScoreWeights struct {
	AnnualReturn       float64 `yaml:"annual_return" json:"annual_return"`
	MaxDrawdown        float64 `yaml:"max_drawdown" json:"max_drawdown"`
	SharpeRatio        float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	TradeFrequency     float64 `yaml:"trade_frequency" json:"trade_frequency"`
	CapitalUtilization float64 `yaml:"capital_utilization" json:"capital_utilization"`
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{AnnualReturn: 1.0}
}

// Metrics summarises one equity curve. All fields are plain fractions
// (0.05 = 5%), never percentages.
type Metrics struct {
	TotalReturn        float64 `json:"total_return"`
	AnnualReturn       float64 `json:"annual_return"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	DailyVolatility    float64 `json:"daily_volatility"`
	AnnualVolatility   float64 `json:"annual_volatility"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	TradeCount         int     `json:"trade_count"`
	CapitalUtilization float64 `json:"capital_utilization"`
	RealizedProfit     float64 `json:"realized_profit"`
	FloatPnL           float64 `json:"float_pnl"`
	Score              float64 `json:"score"`

	BenchmarkTotalReturn  float64 `json:"benchmark_total_return"`
	BenchmarkAnnualReturn float64 `json:"benchmark_annual_return"`
	BenchmarkMaxDrawdown  float64 `json:"benchmark_max_drawdown"`
	BenchmarkSharpeRatio  float64 `json:"benchmark_sharpe_ratio"`
}

// Evaluate derives the metric set from an equity curve and its trades.
// Empty input yields zero metrics rather than an error.
func Evaluate(equity []EquityRow, trades []Trade, realizedProfit, initialCapital float64, w ScoreWeights) Metrics {
	m := Metrics{TradeCount: len(trades), RealizedProfit: realizedProfit}
	if len(equity) == 0 {
		return m
	}

	values := make([]float64, len(equity))
	returns := make([]float64, len(equity))
	var sumPos, sumTotal float64
	for i, row := range equity {
		values[i] = row.TotalValue
		returns[i] = row.DailyReturn
		sumPos += row.PositionValue
		sumTotal += row.TotalValue
	}

	m.TotalReturn = totalReturn(values)
	m.AnnualReturn = annualReturn(m.TotalReturn, len(values))
	m.MaxDrawdown = maxDrawdown(values)
	m.DailyVolatility = sampleStddev(returns)
	m.AnnualVolatility = m.DailyVolatility * math.Sqrt(tradingDaysPerYear)
	if m.AnnualVolatility != 0 {
		m.SharpeRatio = (m.AnnualReturn - riskFreeRate) / m.AnnualVolatility
	}
	if sumTotal != 0 {
		m.CapitalUtilization = sumPos / sumTotal
	}
	m.FloatPnL = values[len(values)-1] - initialCapital - realizedProfit
	m.Score = score(m, w)
	return m
}

// EvaluateBenchmark computes the buy-and-hold reference metrics from a
// close series, treating it as an equity curve of its own.
func EvaluateBenchmark(closes []float64) (total, annual, drawdown, sharpe float64) {
	if len(closes) == 0 {
		return 0, 0, 0, 0
	}
	total = totalReturn(closes)
	annual = annualReturn(total, len(closes))
	drawdown = maxDrawdown(closes)

	returns := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns[i] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	vol := sampleStddev(returns) * math.Sqrt(tradingDaysPerYear)
	if vol != 0 {
		sharpe = (annual - riskFreeRate) / vol
	}
	return total, annual, drawdown, sharpe
}

// score is a weighted linear combination of the raw metrics; drawdown
// enters negated so that smaller drawdowns score higher.
func score(m Metrics, w ScoreWeights) float64 {
	return w.AnnualReturn*m.AnnualReturn +
		w.MaxDrawdown*(-m.MaxDrawdown) +
		w.SharpeRatio*m.SharpeRatio +
		w.TradeFrequency*float64(m.TradeCount) +
		w.CapitalUtilization*m.CapitalUtilization
}

func totalReturn(values []float64) float64 {
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

func annualReturn(total float64, n int) float64 {
	if n <= 1 {
		return 0
	}
	if 1+total <= 0 {
		return -1
	}
	return math.Pow(1+total, tradingDaysPerYear/float64(n)) - 1
}

func maxDrawdown(values []float64) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func sampleStddev(xs []float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
