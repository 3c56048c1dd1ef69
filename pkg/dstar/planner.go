package dstar

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/matzehuels/trackplan/pkg/frontier"
	"github.com/matzehuels/trackplan/pkg/grid"
)

var (
	// ErrNilGrid is returned by [New] when Config.Grid is nil.
	ErrNilGrid = errors.New("dstar: grid is nil")

	// ErrOutOfBounds is returned when the start, goal or a move target lies
	// outside the grid.
	ErrOutOfBounds = errors.New("dstar: cell outside grid")
)

// Config describes a new planning problem.
type Config struct {
	Grid  *grid.Grid
	Start grid.Cell
	Goal  grid.Cell

	// Obstacles is copied; later changes go through Planner.UpdateObstacles.
	Obstacles grid.CellSet

	// Tracks is the preferred-route set. Empty means uniform cost. It is
	// shared, not copied, and must not be mutated while the planner lives.
	Tracks grid.CellSet
}

// Stats reports the work done by one ComputeShortestPath call.
type Stats struct {
	Expansions   int           // cells made consistent or invalidated
	Reinsertions int           // stale frontier entries pushed back
	Duration     time.Duration // wall time
}

// Planner holds the D* Lite search state for one start/goal pair.
// The zero value is not usable; create planners with [New].
type Planner struct {
	grid   *grid.Grid
	origin grid.Cell
	goal   grid.Cell
	km     float64

	g   []float64 // row-major, settled cost-to-goal
	rhs []float64 // row-major, one-step lookahead

	obstacles grid.CellSet
	tracks    grid.CellSet
	open      *frontier.Frontier

	visited []grid.Cell
	seen    grid.CellSet
}

// New seeds a planner: g = rhs = +Inf everywhere, rhs(goal) = 0, and the
// goal queued. No search runs until ComputeShortestPath is called.
func New(cfg Config) (*Planner, error) {
	if cfg.Grid == nil {
		return nil, ErrNilGrid
	}
	if !cfg.Grid.InBounds(cfg.Start) {
		return nil, fmt.Errorf("%w: start %v", ErrOutOfBounds, cfg.Start)
	}
	if !cfg.Grid.InBounds(cfg.Goal) {
		return nil, fmt.Errorf("%w: goal %v", ErrOutOfBounds, cfg.Goal)
	}

	n := cfg.Grid.Size()
	p := &Planner{
		grid:      cfg.Grid,
		origin:    cfg.Start,
		goal:      cfg.Goal,
		g:         make([]float64, n),
		rhs:       make([]float64, n),
		obstacles: cfg.Obstacles.Clone(),
		tracks:    cfg.Tracks,
		open:      frontier.New(),
		seen:      grid.NewCellSet(),
	}
	inf := math.Inf(1)
	for i := range p.g {
		p.g[i] = inf
		p.rhs[i] = inf
	}
	p.rhs[p.idx(p.goal)] = 0
	p.open.Push(p.goal, p.Key(p.goal))
	return p, nil
}

func (p *Planner) idx(c grid.Cell) int { return p.grid.Index(c) }

func (p *Planner) cost(a, b grid.Cell) float64 {
	return grid.CostModel{Obstacles: p.obstacles, Tracks: p.tracks}.Cost(a, b)
}

// Key computes the current priority of s.
func (p *Planner) Key(s grid.Cell) frontier.Key {
	i := p.idx(s)
	m := math.Min(p.g[i], p.rhs[i])
	return frontier.Key{
		Primary:   m + grid.Manhattan(p.origin, s) + p.km,
		Secondary: m,
	}
}

// UpdateVertex recomputes rhs(u) from u's non-obstacle neighbours (the goal
// keeps rhs = 0), drops any queued entry for u, and requeues u with a fresh
// key if it is inconsistent.
func (p *Planner) UpdateVertex(u grid.Cell) {
	i := p.idx(u)
	if u != p.goal {
		best := math.Inf(1)
		for _, s := range p.grid.Neighbors(u) {
			if p.obstacles.Has(s) {
				continue
			}
			if v := p.g[p.idx(s)] + p.cost(u, s); v < best {
				best = v
			}
		}
		p.rhs[i] = best
	}
	p.open.Remove(u)
	if p.g[i] != p.rhs[i] {
		p.open.Push(u, p.Key(u))
	}
}

// ComputeShortestPath relaxes frontier cells in key order until the origin is
// locally consistent and the smallest queued key is no smaller than the
// origin's own key.
func (p *Planner) ComputeShortestPath() Stats {
	start := time.Now()
	var stats Stats
	for p.needsWork() {
		top, _ := p.open.Pop()
		u := top.Cell
		fresh := p.Key(u)
		if top.Key.Less(fresh) {
			p.open.Push(u, fresh)
			stats.Reinsertions++
			continue
		}

		stats.Expansions++
		i := p.idx(u)
		if p.g[i] > p.rhs[i] {
			p.g[i] = p.rhs[i]
			p.updatePredecessors(u)
			continue
		}
		p.g[i] = math.Inf(1)
		p.UpdateVertex(u)
		p.updatePredecessors(u)
	}
	stats.Duration = time.Since(start)
	return stats
}

func (p *Planner) needsWork() bool {
	top, ok := p.open.TopKey()
	if !ok {
		return false
	}
	o := p.idx(p.origin)
	return top.Less(p.Key(p.origin)) || p.rhs[o] != p.g[o]
}

func (p *Planner) updatePredecessors(u grid.Cell) {
	for _, s := range p.grid.Neighbors(u) {
		if !p.obstacles.Has(s) {
			p.UpdateVertex(s)
		}
	}
}

// UpdateObstacles replaces the planner's obstacle view with next and runs
// UpdateVertex on every cell whose membership changed and on all of its
// neighbours. It returns the changed cells. Call ComputeShortestPath
// afterwards to re-converge.
func (p *Planner) UpdateObstacles(next grid.CellSet) []grid.Cell {
	changed := p.obstacles.SymmetricDifference(next)
	if len(changed) == 0 {
		return nil
	}
	p.obstacles = next.Clone()
	for _, c := range changed {
		if !p.grid.InBounds(c) {
			continue
		}
		p.UpdateVertex(c)
		for _, n := range p.grid.Neighbors(c) {
			p.UpdateVertex(n)
		}
	}
	return changed
}

// MoveTo makes c the new search origin. km grows by h(old, new) before any
// further key is computed, and c is recorded as visited. Call
// ComputeShortestPath afterwards.
func (p *Planner) MoveTo(c grid.Cell) error {
	if !p.grid.InBounds(c) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, c)
	}
	p.km += grid.Manhattan(p.origin, c)
	p.origin = c
	if p.seen.Add(c) {
		p.visited = append(p.visited, c)
	}
	return nil
}

// MoveStart advances the origin to path[1]. It returns the new origin, or
// ok=false when the path has no second cell.
func (p *Planner) MoveStart(path []grid.Cell) (next grid.Cell, ok bool) {
	if len(path) <= 1 {
		return grid.Cell{}, false
	}
	if err := p.MoveTo(path[1]); err != nil {
		return grid.Cell{}, false
	}
	return path[1], true
}

// Clone returns a deep copy that shares only the immutable grid and track set.
func (p *Planner) Clone() *Planner {
	return &Planner{
		grid:      p.grid,
		origin:    p.origin,
		goal:      p.goal,
		km:        p.km,
		g:         slices.Clone(p.g),
		rhs:       slices.Clone(p.rhs),
		obstacles: p.obstacles.Clone(),
		tracks:    p.tracks,
		open:      p.open.Clone(),
		visited:   slices.Clone(p.visited),
		seen:      p.seen.Clone(),
	}
}

// G returns the settled cost-to-goal of c.
func (p *Planner) G(c grid.Cell) float64 { return p.g[p.idx(c)] }

// RHS returns the lookahead cost-to-goal of c.
func (p *Planner) RHS(c grid.Cell) float64 { return p.rhs[p.idx(c)] }

// KM returns the accumulated key modifier.
func (p *Planner) KM() float64 { return p.km }

// Origin returns the current search origin (the agent's cell).
func (p *Planner) Origin() grid.Cell { return p.origin }

// Goal returns the goal cell.
func (p *Planner) Goal() grid.Cell { return p.goal }

// Grid returns the adjacency the planner searches.
func (p *Planner) Grid() *grid.Grid { return p.grid }

// IsObstacle reports whether c is blocked in the planner's view.
func (p *Planner) IsObstacle(c grid.Cell) bool { return p.obstacles.Has(c) }

// Obstacles returns a copy of the planner's obstacle view.
func (p *Planner) Obstacles() grid.CellSet { return p.obstacles.Clone() }

// Cost returns the traversal cost from a to b under the planner's view.
func (p *Planner) Cost(a, b grid.Cell) float64 { return p.cost(a, b) }

// Visited returns the cells the origin has moved onto, in order.
func (p *Planner) Visited() []grid.Cell { return slices.Clone(p.visited) }

// Frontier returns the queued entries in pop order.
func (p *Planner) Frontier() []frontier.Entry { return p.open.Entries() }
