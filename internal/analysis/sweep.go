// Package analysis layers parameter search and suitability scoring on
// top of the backtest engine.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"etf-grid-backtest/internal/backtest"
	"etf-grid-backtest/internal/indicators"
	"etf-grid-backtest/internal/logger"
	"etf-grid-backtest/internal/model"
)

// ErrAllCombosFailed means no parameter combination produced a result.
var ErrAllCombosFailed = errors.New("analysis: all parameter combinations failed")

const DefaultTopN = 5

// Combo is one point in the parameter space: a grid count paired with an
// ATR multiplier that determines the spacing.
type Combo struct {
	GridCount int     `json:"grid_count"`
	ATRFactor float64 `json:"atr_factor"`
}

// ComboFailure records a combination that could not be backtested,
// typically because the capital could not cover its base position.
type ComboFailure struct {
	Combo Combo  `json:"combo"`
	Err   string `json:"error"`
}

// SweepResult holds the ranked survivors of a parameter sweep.
type SweepResult struct {
	ATR       float64            `json:"atr"`
	Evaluated int                `json:"evaluated"`
	Top       []*backtest.Result `json:"top"`
	Failures  []ComboFailure     `json:"failures,omitempty"`
}

// DefaultSpace enumerates the standard search grid: six grid counts
// crossed with four ATR multipliers.
func DefaultSpace() []Combo {
	counts := []int{6, 8, 10, 12, 14, 16}
	factors := []float64{0.5, 1.0, 1.5, 2.0}
	out := make([]Combo, 0, len(counts)*len(factors))
	for _, c := range counts {
		for _, f := range factors {
			out = append(out, Combo{GridCount: c, ATRFactor: f})
		}
	}
	return out
}

// Sweeper runs every combination of its space through the engine and
// ranks the results by composite score.
type Sweeper struct {
	Engine  *backtest.Engine
	Space   []Combo
	TopN    int
	Workers int
}

func NewSweeper(engine *backtest.Engine) *Sweeper {
	return &Sweeper{
		Engine:  engine,
		Space:   DefaultSpace(),
		TopN:    DefaultTopN,
		Workers: runtime.NumCPU(),
	}
}

// Run sweeps the parameter space over bars. atr <= 0 means "derive it
// from the series". Combos run concurrently but ranking is
// deterministic: sorting is stable and ties keep enumeration order.
func (s *Sweeper) Run(ctx context.Context, bars model.Series, atr float64) (*SweepResult, error) {
	if err := bars.Validate(); err != nil {
		return nil, err
	}
	if atr <= 0 {
		atr = indicators.LatestATR(bars, indicators.DefaultATRPeriod)
	}
	if atr <= 0 {
		return nil, fmt.Errorf("analysis: series too short to derive an ATR spacing")
	}

	space := s.Space
	if len(space) == 0 {
		space = DefaultSpace()
	}
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	type slot struct {
		res *backtest.Result
		err error
	}
	slots := make([]slot, len(space))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				combo := space[i]
				res, err := s.Engine.Run(bars, backtest.GridSpec{
					Count: combo.GridCount,
					Step:  atr * combo.ATRFactor,
				})
				if err == nil {
					res.Params.ATRFactor = combo.ATRFactor
				}
				slots[i] = slot{res: res, err: err}
			}
		}()
	}

feed:
	for i := range space {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &SweepResult{ATR: atr}
	order := make([]int, 0, len(space))
	for i, sl := range slots {
		if sl.err != nil {
			logger.L().Debugw("combo failed",
				"grid_count", space[i].GridCount,
				"atr_factor", space[i].ATRFactor,
				"error", sl.err)
			out.Failures = append(out.Failures, ComboFailure{Combo: space[i], Err: sl.err.Error()})
			continue
		}
		out.Evaluated++
		order = append(order, i)
	}
	if out.Evaluated == 0 {
		return nil, fmt.Errorf("%w: %d combinations", ErrAllCombosFailed, len(space))
	}

	sort.SliceStable(order, func(a, b int) bool {
		return slots[order[a]].res.Metrics.Score > slots[order[b]].res.Metrics.Score
	})

	topN := s.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > len(order) {
		topN = len(order)
	}
	out.Top = make([]*backtest.Result, 0, topN)
	for _, i := range order[:topN] {
		out.Top = append(out.Top, slots[i].res)
	}
	return out, nil
}
