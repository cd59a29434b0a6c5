package model

// Lot is the minimum tradable share multiple.
const Lot = 100

// GridLevel is one pre-computed price line. Size is the number of shares
// traded when the level fires (a multiple of Lot; 0 makes the level inert).
// HasInventory tracks whether the executor currently holds the share batch
// assigned to this level; it is the only mutable field once a grid is built.
type GridLevel struct {
	Price          float64
	Size           int
	SpacingPercent float64
	HasInventory   bool
}

// CloneGrid deep-copies a grid so executor runs never share level state.
func CloneGrid(levels []GridLevel) []GridLevel {
	out := make([]GridLevel, len(levels))
	copy(out, levels)
	return out
}
