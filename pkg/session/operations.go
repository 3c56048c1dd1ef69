package session

import (
	"context"
	"fmt"

	"github.com/matzehuels/trackplan/pkg/dstar"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/observability"
	"github.com/matzehuels/trackplan/pkg/selector"
)

// PathRequest asks for a route from the best of several agents to a goal.
type PathRequest struct {
	Starts       []grid.Cell `json:"start"`
	Goal         *grid.Cell  `json:"goal"`
	TempObstacle *grid.Cell  `json:"new_wall,omitempty"`
}

// PathResult is a successful path request.
type PathResult struct {
	Path  []grid.Cell `json:"path"`
	Agent int         `json:"car"`
	Cost  float64     `json:"cost"`
	Stats dstar.Stats `json:"-"`
}

// UpdateResult acknowledges a map update.
type UpdateResult struct {
	Cell      grid.Cell   `json:"cell"`
	Blocked   bool        `json:"blocked"`
	Replanned bool        `json:"replanned"`
	Path      []grid.Cell `json:"path,omitempty"`
	Reached   bool        `json:"reached"` // Path ends on the goal
}

// StepResult reports one move of the active agent.
type StepResult struct {
	Start    grid.Cell   `json:"start"`
	Path     []grid.Cell `json:"path"`
	Visited  []grid.Cell `json:"visited"`
	Finished bool        `json:"finished"`
	Reached  bool        `json:"reached"` // Path ends on the goal
}

// NewPath selects the candidate start nearest the goal, masks the other
// candidates, and plans over the session obstacles. The optional temporary
// obstacle is not part of this request's view: on success the new planner
// replaces the active one and only then is the temporary obstacle added to
// the session set and scheduled for removal, so later updates and requests
// see it. On failure the previous planner stays active and nothing changes.
func (s *Session) NewPath(ctx context.Context, req PathRequest) (PathResult, error) {
	var res PathResult
	err := s.guard(ctx, "new_path", func() error {
		if len(req.Starts) == 0 {
			return errs.New(errs.ErrCodeInvalidRequest, "no start positions provided")
		}
		if req.Goal == nil {
			return errs.New(errs.ErrCodeInvalidRequest, "goal is required")
		}
		goal := *req.Goal
		for i, c := range req.Starts {
			if err := s.validateCell(fmt.Sprintf("start %d", i), c); err != nil {
				return err
			}
		}
		if err := s.validateCell("goal", goal); err != nil {
			return err
		}
		if req.TempObstacle != nil {
			if err := s.validateCell("new_wall", *req.TempObstacle); err != nil {
				return err
			}
		}

		sel, err := selector.Select(req.Starts, goal, s.obstacles)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidRequest, err, "select start")
		}
		view := sel.Obstacles
		if view.Has(sel.Start) {
			return errs.New(errs.ErrCodeUnreachableGoal, "start %v of agent %d is blocked", sel.Start, sel.Index)
		}

		p, err := dstar.New(dstar.Config{
			Grid:      s.grid,
			Start:     sel.Start,
			Goal:      goal,
			Obstacles: view,
			Tracks:    s.tracks,
		})
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidRequest, err, "create planner")
		}
		stats := p.ComputeShortestPath()
		recordCompute(ctx, "new_path", stats)
		path := p.Path()
		observability.Planner().OnPath(ctx, "new_path", len(path), p.Reached(path))
		if !p.Reached(path) {
			return errs.New(errs.ErrCodeUnreachableGoal, "no path from %v (agent %d) to %v", sel.Start, sel.Index, goal)
		}

		s.run = &activeRun{planner: p, masks: grid.NewCellSet(sel.Masked...), agent: sel.Index}
		if req.TempObstacle != nil {
			s.temps.Insert(*req.TempObstacle)
		}
		res = PathResult{Path: path, Agent: sel.Index, Cost: p.PathCost(path), Stats: stats}
		s.logger.Info("path planned",
			"agent", sel.Index, "start", sel.Start, "goal", goal,
			"cells", len(path), "expansions", stats.Expansions)
		return nil
	})
	if err != nil {
		s.logger.Warn("path request failed", "err", err)
		return PathResult{}, err
	}
	s.persist(ctx)
	return res, nil
}

// UpdateMap toggles obstacle membership of cell. A pending expiry for the
// cell is cancelled, so a manual toggle is permanent. With an active planner,
// the planner's view (session obstacles plus its agent masks) is re-synced
// with a full sweep over every changed cell and its neighbours, then the
// planner re-converges before UpdateMap returns.
func (s *Session) UpdateMap(ctx context.Context, cell grid.Cell) (UpdateResult, error) {
	var res UpdateResult
	err := s.guard(ctx, "update_map", func() error {
		if err := s.validateCell("cell", cell); err != nil {
			return err
		}
		next := s.obstacles.Clone()
		blocked := next.Toggle(cell)
		res = UpdateResult{Cell: cell, Blocked: blocked}

		var run *activeRun
		if s.run != nil {
			run = s.run.clone()
			changed := run.planner.UpdateObstacles(next.Union(run.masks))
			stats := run.planner.ComputeShortestPath()
			recordCompute(ctx, "update_map", stats)
			res.Replanned = true
			res.Path = run.planner.Path()
			res.Reached = run.planner.Reached(res.Path)
			observability.Planner().OnPath(ctx, "update_map", len(res.Path), res.Reached)
			if !res.Reached {
				s.logger.Warn("route falls short of the goal", "end", res.Path[len(res.Path)-1], "goal", run.planner.Goal())
			}
			s.logger.Debug("planner re-synced", "changed", len(changed), "expansions", stats.Expansions)
		}

		s.obstacles = next
		if run != nil {
			s.run = run
		}
		s.temps.Cancel(cell)
		s.logger.Info("map updated", "cell", cell, "blocked", blocked)
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	s.persist(ctx)
	return res, nil
}

// Step advances the active agent one cell along its current path and
// re-converges. Finished is true once the agent stands on the goal or no
// further move exists.
func (s *Session) Step(ctx context.Context) (StepResult, error) {
	var res StepResult
	err := s.guard(ctx, "step", func() error {
		if s.run == nil {
			return errs.New(errs.ErrCodeNotInitialized, "no active path; request one first")
		}
		run := s.run.clone()
		p := run.planner

		path := p.Path()
		if p.Origin() == p.Goal() {
			res = StepResult{Start: p.Origin(), Path: path, Visited: p.Visited(), Finished: true, Reached: p.Reached(path)}
			return nil
		}
		if _, ok := p.MoveStart(path); !ok {
			res = StepResult{Start: p.Origin(), Path: path, Visited: p.Visited(), Finished: true, Reached: p.Reached(path)}
			s.logger.Info("agent cannot move", "at", p.Origin())
			return nil
		}
		stats := p.ComputeShortestPath()
		recordCompute(ctx, "step", stats)
		path = p.Path()
		observability.Planner().OnPath(ctx, "step", len(path), p.Reached(path))

		s.run = run
		res = StepResult{
			Start:    p.Origin(),
			Path:     path,
			Visited:  p.Visited(),
			Finished: p.Origin() == p.Goal(),
			Reached:  p.Reached(path),
		}
		s.logger.Debug("agent stepped", "to", p.Origin(), "km", p.KM(), "expansions", stats.Expansions)
		return nil
	})
	if err != nil {
		return StepResult{}, err
	}
	s.persist(ctx)
	return res, nil
}
