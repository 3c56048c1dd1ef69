// Package session owns the mutable state of one planning map.
//
// A [Session] holds the map's dimensions, the long-lived obstacle set, the
// track set and at most one active planner. Every operation runs under the
// session lock, and the temporary-obstacle manager's expiry callbacks take
// the same lock, so planner mutations never interleave.
//
// Operations are atomic. New state is built on copies (a fresh planner, a
// cloned planner, a cloned obstacle set) and only swapped in once the work has
// finished. A failure or an internal panic leaves the session exactly as it
// was and is reported as a structured [errs.Error].
//
// # Usage
//
//	s, err := session.New(m, session.Options{Logger: logger})
//	res, err := s.NewPath(ctx, session.PathRequest{
//	    Starts: []grid.Cell{grid.C(0, 0), grid.C(4, 0)},
//	    Goal:   &goal,
//	})
//	step, err := s.Step(ctx)
//	snap, err := s.Snapshot(ctx)
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/trackplan/pkg/cache"
	"github.com/matzehuels/trackplan/pkg/dstar"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/observability"
	"github.com/matzehuels/trackplan/pkg/obstacle"
)

// DefaultStoreTTL is how long persisted snapshots live.
const DefaultStoreTTL = 24 * time.Hour

// Options configures a Session. Zero values select defaults.
type Options struct {
	Logger *log.Logger // defaults to log.Default()

	Store    cache.Cache   // snapshot persistence; defaults to a NullCache
	Keyer    cache.Keyer   // defaults to cache.NewDefaultKeyer()
	StoreTTL time.Duration // defaults to DefaultStoreTTL

	Scheduler     obstacle.Scheduler // defaults to obstacle.RealScheduler
	ObstacleDelay time.Duration      // defaults to obstacle.DefaultDelay
}

// Session is one map's planning state. It is safe for concurrent use.
type Session struct {
	id       string
	logger   *log.Logger
	store    cache.Cache
	keyer    cache.Keyer
	storeTTL time.Duration

	mu        sync.Mutex
	m         *mapdata.Map
	grid      *grid.Grid
	obstacles grid.CellSet
	tracks    grid.CellSet
	temps     *obstacle.Manager
	run       *activeRun
}

// activeRun is the planner of the latest successful path request together
// with the agent cells it masks.
type activeRun struct {
	planner *dstar.Planner
	masks   grid.CellSet
	agent   int
}

func (r *activeRun) clone() *activeRun {
	return &activeRun{planner: r.planner.Clone(), masks: r.masks, agent: r.agent}
}

// New creates a session for m. The map is validated.
func New(m *mapdata.Map, opts Options) (*Session, error) {
	if m == nil {
		return nil, errs.New(errs.ErrCodeInvalidMap, "map is nil")
	}
	if err := m.Validate(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidMap, err, "invalid map")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Store == nil {
		opts.Store = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.StoreTTL <= 0 {
		opts.StoreTTL = DefaultStoreTTL
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		logger:   opts.Logger.With("session", id[:8]),
		store:    opts.Store,
		keyer:    opts.Keyer,
		storeTTL: opts.StoreTTL,
	}
	s.temps = obstacle.NewManager(&s.mu, sessionObstacles{s}, obstacle.Options{
		Delay:     opts.ObstacleDelay,
		Scheduler: opts.Scheduler,
		Logger:    s.logger,
	})
	s.loadMap(m)
	return s, nil
}

// sessionObstacles lets the obstacle manager mutate whichever set the session
// currently holds.
type sessionObstacles struct{ s *Session }

func (o sessionObstacles) Has(c grid.Cell) bool    { return o.s.obstacles.Has(c) }
func (o sessionObstacles) Add(c grid.Cell) bool    { return o.s.obstacles.Add(c) }
func (o sessionObstacles) Remove(c grid.Cell) bool { return o.s.obstacles.Remove(c) }

func (s *Session) loadMap(m *mapdata.Map) {
	s.m = m
	s.grid = m.Grid()
	s.obstacles = m.WallSet()
	s.tracks = m.TrackSet()
	s.run = nil
}

// ID returns the session's UUID, also used as its snapshot store key.
func (s *Session) ID() string { return s.id }

// Map returns the map the session currently runs on.
func (s *Session) Map() *mapdata.Map {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}

// Obstacles returns a copy of the session obstacle set.
func (s *Session) Obstacles() grid.CellSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obstacles.Clone()
}

// PendingObstacles returns the temporary obstacles awaiting expiry.
func (s *Session) PendingObstacles() []grid.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temps.Pending()
}

// Active reports whether a planner is installed.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Reset drops the active planner and its stored snapshot. The obstacle set,
// including manual toggles and pending temporary obstacles, belongs to the
// session and is kept.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.run = nil
	s.mu.Unlock()

	s.logger.Info("session reset")
	if err := s.store.Delete(ctx, s.keyer.SnapshotKey(s.id)); err != nil {
		s.logger.Warn("drop stored snapshot", "err", err)
	}
	return nil
}

// ReplaceMap swaps in a new map, as on a hot reload. The active planner is
// dropped and pending expiries are cancelled.
func (s *Session) ReplaceMap(ctx context.Context, m *mapdata.Map) error {
	if m == nil {
		return errs.New(errs.ErrCodeInvalidMap, "map is nil")
	}
	if err := m.Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidMap, err, "invalid map")
	}
	s.mu.Lock()
	s.temps.Stop()
	s.loadMap(m)
	s.mu.Unlock()

	s.logger.Info("map replaced", "name", m.Name, "width", m.Width, "height", m.Height, "walls", len(m.Walls))
	return nil
}

// Close cancels pending expiries and drops the planner.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps.Stop()
	s.run = nil
	return nil
}

// =============================================================================
// Atomic execution
// =============================================================================

// guard runs fn with the session lock held. A panic inside fn becomes an
// INTERNAL_ERROR; since fn only commits at its very end, state is unchanged.
func (s *Session) guard(ctx context.Context, op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = errs.FromPanic(r)
			s.logger.Error("operation panicked", "op", op, "panic", r)
		}
		if err != nil {
			observability.Planner().OnRequestError(ctx, op, string(errs.GetCode(err)))
		}
	}()
	return fn()
}

// persist writes the current snapshot to the store. It must be called
// without the lock held. Failures are logged only.
func (s *Session) persist(ctx context.Context) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("encode snapshot", "err", err)
		return
	}
	if err := s.store.Set(ctx, s.keyer.SnapshotKey(s.id), data, s.storeTTL); err != nil {
		s.logger.Warn("persist snapshot", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "snapshot", len(data))
}

func (s *Session) validateCell(role string, c grid.Cell) error {
	return errs.ValidateCell(role, c.X, c.Y, s.m.Width, s.m.Height)
}

func recordCompute(ctx context.Context, reason string, stats dstar.Stats) {
	observability.Planner().OnCompute(ctx, reason, stats.Expansions, stats.Reinsertions, stats.Duration)
}
