package dstar

import (
	"math"

	"github.com/matzehuels/trackplan/pkg/grid"
)

// Path descends greedily from the origin over the converged g field. At each
// cell it steps to the non-obstacle neighbour minimising g + cost (the first
// in neighbour order on ties). It stops short of the goal when the current
// cell has no usable neighbour, when the best neighbour is unreachable, or
// when the best neighbour was already visited in this walk.
func (p *Planner) Path() []grid.Cell {
	path := []grid.Cell{p.origin}
	onPath := grid.NewCellSet(p.origin)
	current := p.origin

	for current != p.goal {
		next, found := p.bestSuccessor(current)
		if !found {
			return path
		}
		if math.IsInf(p.G(next), 1) || onPath.Has(next) {
			break
		}
		current = next
		onPath.Add(current)
		path = append(path, current)
	}
	return path
}

func (p *Planner) bestSuccessor(u grid.Cell) (grid.Cell, bool) {
	var (
		best     grid.Cell
		bestCost = math.Inf(1)
		found    bool
	)
	for _, s := range p.grid.Neighbors(u) {
		if p.obstacles.Has(s) {
			continue
		}
		v := p.G(s) + p.cost(u, s)
		if !found || v < bestCost {
			best, bestCost, found = s, v, true
		}
	}
	return best, found
}

// Reached reports whether path ends at the goal.
func (p *Planner) Reached(path []grid.Cell) bool {
	return len(path) > 0 && path[len(path)-1] == p.goal
}

// PathCost sums the traversal cost of consecutive steps in path.
func (p *Planner) PathCost(path []grid.Cell) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += p.cost(path[i-1], path[i])
	}
	return total
}
