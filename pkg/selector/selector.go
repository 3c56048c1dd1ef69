// Package selector picks which of several agents should drive toward a goal.
//
// The candidate nearest the goal by Manhattan distance wins, earliest in
// input order on ties. Every other candidate's cell becomes an obstacle in a
// request-scoped copy of the obstacle set so the search cannot route through
// another agent.
package selector

import (
	"errors"

	"github.com/matzehuels/trackplan/pkg/grid"
)

// ErrNoCandidates is returned by [Select] when no start cell is offered.
var ErrNoCandidates = errors.New("selector: no candidate starts")

// Selection is the outcome of [Select].
type Selection struct {
	Start grid.Cell // chosen candidate
	Index int       // position of Start in the input

	// Obstacles is a fresh set: the input obstacles plus every other
	// candidate's cell. Callers may mutate it freely.
	Obstacles grid.CellSet

	// Masked lists the cells added on top of the input obstacles, sorted.
	Masked []grid.Cell
}

// Select chooses the candidate minimising Manhattan distance to goal.
// obstacles is never modified. A candidate sharing the chosen cell is not
// masked, since that would block the start itself.
func Select(candidates []grid.Cell, goal grid.Cell, obstacles grid.CellSet) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrNoCandidates
	}

	best := 0
	for i, c := range candidates[1:] {
		if grid.Manhattan(c, goal) < grid.Manhattan(candidates[best], goal) {
			best = i + 1
		}
	}
	start := candidates[best]

	sel := Selection{Start: start, Index: best, Obstacles: obstacles.Clone()}
	masked := grid.NewCellSet()
	for i, c := range candidates {
		if i == best || c == start {
			continue
		}
		if sel.Obstacles.Add(c) {
			masked.Add(c)
		}
	}
	sel.Masked = masked.Sorted()
	return sel, nil
}
