package grid

import (
	"errors"
	"fmt"

	"etf-grid-backtest/internal/model"
)

// ErrInvalidSpec marks a grid specification the generator rejects
// (too few levels, non-positive step or reference price).
var ErrInvalidSpec = errors.New("invalid grid spec")

// Generator builds grid level sequences around a reference price.
// When no fixed trade size is supplied it distributes InitialCapital
// evenly across the levels, reserving headroom for fees.
type Generator struct {
	InitialCapital float64
	FeeRate        float64
}

func NewGenerator(initialCapital, feeRate float64) *Generator {
	return &Generator{InitialCapital: initialCapital, FeeRate: feeRate}
}

// ByStep produces count levels spaced by the absolute step: floor((count-1)/2)
// below the reference, one at the reference, the rest above. The returned
// spacing percent is step/ref*100.
func (g *Generator) ByStep(ref, step float64, count, fixedSize int) ([]model.GridLevel, float64, error) {
	if err := validate(ref, step, count); err != nil {
		return nil, 0, err
	}
	percent := step / ref * 100

	below := (count - 1) / 2
	lowest := ref - float64(below)*step
	if lowest <= 0 {
		return nil, 0, fmt.Errorf("%w: lowest level %.4f not positive (ref=%.4f step=%.4f count=%d)",
			ErrInvalidSpec, lowest, ref, step, count)
	}

	prices := make([]float64, 0, count)
	for k := below; k >= 1; k-- {
		prices = append(prices, ref-float64(k)*step)
	}
	prices = append(prices, ref)
	for k := 1; k <= count-1-below; k++ {
		prices = append(prices, ref+float64(k)*step)
	}
	return g.build(prices, percent, fixedSize), percent, nil
}

// ByPercent produces count levels spaced arithmetically by percent of the
// reference price: the kth level sits at ref*(1 ± k*percent/100).
func (g *Generator) ByPercent(ref, percent float64, count, fixedSize int) ([]model.GridLevel, float64, error) {
	if err := validate(ref, percent, count); err != nil {
		return nil, 0, err
	}
	step := ref * percent / 100
	levels, _, err := g.ByStep(ref, step, count, fixedSize)
	return levels, percent, err
}

func validate(ref, step float64, count int) error {
	if count < 3 {
		return fmt.Errorf("%w: need at least 3 levels, got %d", ErrInvalidSpec, count)
	}
	if step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %.6f", ErrInvalidSpec, step)
	}
	if ref <= 0 {
		return fmt.Errorf("%w: reference price must be positive, got %.6f", ErrInvalidSpec, ref)
	}
	return nil
}

// build attaches a trade size to each level. Levels whose even-split cash
// cannot afford a full lot get size 0 and never fire.
func (g *Generator) build(prices []float64, percent float64, fixedSize int) []model.GridLevel {
	levels := make([]model.GridLevel, len(prices))
	perLevelCash := g.InitialCapital / float64(len(prices)) / (1 + g.FeeRate)
	for i, p := range prices {
		size := fixedSize
		if size <= 0 {
			size = int(perLevelCash/p/model.Lot) * model.Lot
		}
		levels[i] = model.GridLevel{
			Price:          p,
			Size:           size,
			SpacingPercent: percent,
		}
	}
	return levels
}
