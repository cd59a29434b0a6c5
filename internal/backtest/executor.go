package backtest

import (
	"errors"
	"fmt"

	"etf-grid-backtest/internal/logger"
	"etf-grid-backtest/internal/model"
)

// ErrInsufficientCapital is returned when the base position cannot be
// established even after the one-time rescale.
var ErrInsufficientCapital = errors.New("insufficient capital for base position")

// epsRel scales the crossing tolerance to the level price. A level flush
// with the previous close must not re-trigger on every bar.
const epsRel = 1e-6

// Side is the direction of a fill.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Trade is one executed fill, immutable once appended. The snapshot fields
// record the account state right after the fill, marked at the fill price.
type Trade struct {
	Date          string  `json:"date"`
	Price         float64 `json:"price"`
	Side          Side    `json:"side"`
	Shares        int     `json:"shares"`
	GridIndex     int     `json:"grid_index"`
	Cash          float64 `json:"cash"`
	Position      int     `json:"position"`
	PositionValue float64 `json:"position_value"`
	TotalValue    float64 `json:"total_value"`
}

// Executor is the stateful crossing detector. It owns the grid sequence for
// the duration of a run; only the HasInventory flags are mutated.
type Executor struct {
	levels         []model.GridLevel
	feeRate        float64
	initialCapital float64

	cash     float64
	position int
	prev     float64
	primed   bool

	realizedProfit float64
}

func NewExecutor(levels []model.GridLevel, feeRate, initialCapital float64) *Executor {
	return &Executor{
		levels:         model.CloneGrid(levels),
		feeRate:        feeRate,
		initialCapital: initialCapital,
		cash:           initialCapital,
	}
}

// EstablishBase performs the mandatory first step on bar 1: every level at
// or above the bar's open is marked held and the combined shares are bought
// at the open in a single fill. If the full set is unaffordable the held set
// is rescaled once, dropping levels from the highest price downward. A
// non-empty set that stays unaffordable fails the run.
func (e *Executor) EstablishBase(bar model.Bar) (*Trade, error) {
	open := bar.Open
	marked := 0
	for i := range e.levels {
		if e.levels[i].Price >= open-epsRel*e.levels[i].Price {
			e.levels[i].HasInventory = true
			marked++
		}
	}

	shares := e.heldShares()
	cost := open * float64(shares) * (1 + e.feeRate)
	if cost > e.cash {
		for i := len(e.levels) - 1; i >= 0 && cost > e.cash; i-- {
			if !e.levels[i].HasInventory {
				continue
			}
			e.levels[i].HasInventory = false
			shares -= e.levels[i].Size
			cost = open * float64(shares) * (1 + e.feeRate)
		}
		if shares == 0 && marked > 0 {
			return nil, fmt.Errorf("%w: cannot afford one level at open %.4f with capital %.2f",
				ErrInsufficientCapital, open, e.initialCapital)
		}
	}

	e.prev = bar.Close
	e.primed = true
	if shares == 0 {
		return nil, nil
	}

	e.cash -= cost
	e.position = shares
	t := e.record(bar, open, Buy, shares, e.lowestHeldIndex())
	return &t, nil
}

// ProcessBar runs the two crossing phases against one bar: buys on downward
// crossings from the highest qualifying level down, then sells on upward
// crossings from the lowest up. A batch bought during this bar is not
// eligible for sale until the next one.
func (e *Executor) ProcessBar(bar model.Bar) ([]Trade, error) {
	if !e.primed {
		return nil, errors.New("executor: base position not established")
	}

	var fills []Trade
	boughtNow := make([]bool, len(e.levels))

	// Phase 1: downward crossings.
	for i := len(e.levels) - 1; i >= 0; i-- {
		lvl := &e.levels[i]
		eps := epsRel * lvl.Price
		if lvl.HasInventory || lvl.Size == 0 {
			continue
		}
		if !(e.prev > lvl.Price+eps && bar.Low <= lvl.Price+eps) {
			continue
		}
		cost := lvl.Price * float64(lvl.Size) * (1 + e.feeRate)
		if cost > e.cash {
			logger.L().Debugw("fill skipped: insufficient cash",
				"date", bar.Date.Format("2006-01-02"),
				"grid_index", i,
				"price", lvl.Price,
				"cash", e.cash,
				"cost", cost,
			)
			break
		}
		lvl.HasInventory = true
		boughtNow[i] = true
		e.cash -= cost
		e.position += lvl.Size
		fills = append(fills, e.record(bar, lvl.Price, Buy, lvl.Size, i))
	}

	// Phase 2: upward crossings, paired with the next-lower level's batch.
	for i := 1; i < len(e.levels); i++ {
		lvl := e.levels[i]
		eps := epsRel * lvl.Price
		if !(e.prev < lvl.Price-eps && bar.High >= lvl.Price-eps) {
			continue
		}
		lower := &e.levels[i-1]
		if !lower.HasInventory || lower.Size == 0 || boughtNow[i-1] {
			continue
		}
		lower.HasInventory = false
		proceeds := lvl.Price * float64(lower.Size) * (1 - e.feeRate)
		e.cash += proceeds
		e.position -= lower.Size
		e.realizedProfit += (lvl.Price - lower.Price) * float64(lower.Size)
		fills = append(fills, e.record(bar, lvl.Price, Sell, lower.Size, i))
	}

	e.prev = bar.Close
	return fills, nil
}

// Cash returns the current cash balance.
func (e *Executor) Cash() float64 { return e.cash }

// Position returns the current share count.
func (e *Executor) Position() int { return e.position }

// RealizedProfit returns the accumulated gross spacing profit from
// completed round trips.
func (e *Executor) RealizedProfit() float64 { return e.realizedProfit }

// Levels returns the grid sequence. The caller must treat it as read-only.
func (e *Executor) Levels() []model.GridLevel { return e.levels }

func (e *Executor) record(bar model.Bar, price float64, side Side, shares, idx int) Trade {
	posValue := float64(e.position) * price
	return Trade{
		Date:          bar.Date.Format("2006-01-02"),
		Price:         price,
		Side:          side,
		Shares:        shares,
		GridIndex:     idx,
		Cash:          e.cash,
		Position:      e.position,
		PositionValue: posValue,
		TotalValue:    e.cash + posValue,
	}
}

func (e *Executor) heldShares() int {
	total := 0
	for i := range e.levels {
		if e.levels[i].HasInventory {
			total += e.levels[i].Size
		}
	}
	return total
}

func (e *Executor) lowestHeldIndex() int {
	for i := range e.levels {
		if e.levels[i].HasInventory {
			return i
		}
	}
	return 0
}
