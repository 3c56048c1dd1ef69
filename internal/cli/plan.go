package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trackplan/pkg/cache"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/obstacle"
	"github.com/matzehuels/trackplan/pkg/render"
	"github.com/matzehuels/trackplan/pkg/session"
)

// planCacheTTL bounds how long a one-shot plan result is reused.
const planCacheTTL = 7 * 24 * time.Hour

type planOpts struct {
	mapPath  string
	starts   []string
	goal     string
	obstacle string
	steps    int
	svg      string
	asJSON   bool
	noCache  bool
}

// planResult is what the plan command computes and caches.
type planResult struct {
	Agent    int                  `json:"car"`
	Path     []grid.Cell          `json:"path"`
	Cost     float64              `json:"cost"`
	Steps    []session.StepResult `json:"steps,omitempty"`
	Snapshot *session.Snapshot    `json:"snapshot"`
}

func (c *CLI) planCommand() *cobra.Command {
	var opts planOpts

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a route on a map file",
		Long: `Plan picks the candidate start nearest the goal, plans a route around walls
and the other candidates, optionally walks the agent along it, and prints the
result.`,
		Example: `  trackplan plan --map mapa.json --start 0,0 --start 4,0 --goal 0,4
  trackplan plan --map floor.toml --start 1,1 --goal 18,12 --obstacle 5,5 --steps 3
  trackplan plan --map mapa.json --start 0,0 --goal 9,9 --svg route.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlan(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mapPath, "map", "m", "mapa.json", "map file (JSON or TOML)")
	cmd.Flags().StringArrayVarP(&opts.starts, "start", "s", nil, "candidate start x,y (repeatable)")
	cmd.Flags().StringVarP(&opts.goal, "goal", "g", "", "goal x,y")
	cmd.Flags().StringVar(&opts.obstacle, "obstacle", "", "temporary obstacle x,y, placed once the route is planned")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "walk the agent this many cells along the route")
	cmd.Flags().StringVar(&opts.svg, "svg", "", "also write the route as SVG to this file")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "ignore cached results")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("goal")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, out io.Writer, opts planOpts) error {
	if opts.steps < 0 {
		return fmt.Errorf("--steps must not be negative")
	}
	req, err := parsePlanRequest(opts)
	if err != nil {
		return err
	}
	m, err := mapdata.LoadFile(opts.mapPath)
	if err != nil {
		return err
	}

	store := c.planCache(opts.noCache)
	defer store.Close()
	key := cache.NewDefaultKeyer().PlanKey(m.Fingerprint(), planKeyOpts(req, opts.steps))

	res, cached := c.cachedPlan(ctx, store, key)
	if !cached {
		prog := newProgress(c.Logger)
		res, err = c.computePlan(ctx, m, req, opts.steps)
		if err != nil {
			return err
		}
		prog.done("route planned", "cells", len(res.Path), "steps", len(res.Steps))
		if data, err := json.Marshal(res); err == nil {
			if err := store.Set(ctx, key, data, planCacheTTL); err != nil {
				c.Logger.Warn("cache plan", "err", err)
			}
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printScene(out, render.FromSnapshot(res.Snapshot))
		printPlanStats(out, len(res.Path), len(res.Steps), res.Cost, cached)
		printKeyValue(out, "agent", fmt.Sprintf("%d at %v", res.Agent, res.Path[0]))
		if n := len(res.Steps); n > 0 {
			last := res.Steps[n-1]
			printKeyValue(out, "position", last.Start.String())
			if last.Finished {
				printSuccess(out, "Agent reached %v", res.Snapshot.Goal)
			}
		}
	}

	if opts.svg != "" {
		if err := c.writeSVG(ctx, render.FromSnapshot(res.Snapshot), opts.svg); err != nil {
			return err
		}
		if !opts.asJSON {
			printFile(out, opts.svg)
		}
	}
	return nil
}

func parsePlanRequest(opts planOpts) (session.PathRequest, error) {
	var req session.PathRequest
	for _, s := range opts.starts {
		c, err := grid.ParseCell(s)
		if err != nil {
			return req, fmt.Errorf("--start: %w", err)
		}
		req.Starts = append(req.Starts, c)
	}
	goal, err := grid.ParseCell(opts.goal)
	if err != nil {
		return req, fmt.Errorf("--goal: %w", err)
	}
	req.Goal = &goal
	if opts.obstacle != "" {
		c, err := grid.ParseCell(opts.obstacle)
		if err != nil {
			return req, fmt.Errorf("--obstacle: %w", err)
		}
		req.TempObstacle = &c
	}
	return req, nil
}

func planKeyOpts(req session.PathRequest, steps int) cache.PlanKeyOpts {
	opts := cache.PlanKeyOpts{Goal: [2]int{req.Goal.X, req.Goal.Y}, Steps: steps}
	for _, c := range req.Starts {
		opts.Starts = append(opts.Starts, [2]int{c.X, c.Y})
	}
	if req.TempObstacle != nil {
		opts.Obstacle = &[2]int{req.TempObstacle.X, req.TempObstacle.Y}
	}
	return opts
}

func (c *CLI) cachedPlan(ctx context.Context, store cache.Cache, key string) (planResult, bool) {
	data, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return planResult{}, false
	}
	var res planResult
	if err := json.Unmarshal(data, &res); err != nil || res.Snapshot == nil || len(res.Path) == 0 {
		c.Logger.Debug("discarding cached plan", "key", key)
		return planResult{}, false
	}
	c.Logger.Debug("plan cache hit", "key", key)
	return res, true
}

// computePlan runs the request on a throwaway session. The temporary
// obstacle never expires during the run.
func (c *CLI) computePlan(ctx context.Context, m *mapdata.Map, req session.PathRequest, steps int) (planResult, error) {
	sess, err := session.New(m, session.Options{
		Logger:    c.Logger,
		Scheduler: obstacle.NewManualScheduler(),
	})
	if err != nil {
		return planResult{}, err
	}
	defer sess.Close()

	path, err := sess.NewPath(ctx, req)
	if err != nil {
		return planResult{}, err
	}
	res := planResult{Agent: path.Agent, Path: path.Path, Cost: path.Cost}
	for i := 0; i < steps; i++ {
		step, err := sess.Step(ctx)
		if err != nil {
			return planResult{}, err
		}
		res.Steps = append(res.Steps, step)
		if step.Finished {
			break
		}
	}
	if res.Snapshot, err = sess.Snapshot(ctx); err != nil {
		return planResult{}, err
	}
	return res, nil
}

func (c *CLI) planCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache("")
	if err != nil {
		c.Logger.Debug("plan cache unavailable", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

func (c *CLI) writeSVG(ctx context.Context, scene render.Scene, path string) error {
	svg, err := renderScene(ctx, scene, renderOpts{format: formatSVG})
	if err != nil {
		return err
	}
	return os.WriteFile(path, svg, 0o644)
}
