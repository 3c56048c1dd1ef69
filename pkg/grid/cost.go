package grid

import "math"

// OffTrackPenalty multiplies the cost of stepping onto a cell outside a
// non-empty track set.
const OffTrackPenalty = 5.0

// Diagonal is the base cost of a diagonal step.
const Diagonal = math.Sqrt2

// CostModel computes directed traversal costs between adjacent cells.
// Both sets are read, never written; a nil set behaves as empty.
type CostModel struct {
	Obstacles CellSet
	Tracks    CellSet
}

// Cost returns the cost of stepping from a to b. Stepping onto an obstacle is
// +Inf. Off-track steps are legal but multiplied by OffTrackPenalty whenever
// the track set is non-empty.
func (m CostModel) Cost(a, b Cell) float64 {
	if m.Obstacles.Has(b) {
		return math.Inf(1)
	}
	base := 1.0
	if a.IsDiagonalTo(b) {
		base = Diagonal
	}
	if len(m.Tracks) > 0 && !m.Tracks.Has(b) {
		return base * OffTrackPenalty
	}
	return base
}
