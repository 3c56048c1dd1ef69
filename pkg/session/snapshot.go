package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/trackplan/pkg/cache"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/observability"
)

// Snapshot is the externally visible state of a session with an active
// planner.
type Snapshot struct {
	ID        string       `json:"id"`
	MapName   string       `json:"map,omitempty"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Walls     grid.CellSet `json:"walls"`
	Tracks    grid.CellSet `json:"tracks"`
	Markers   []grid.Cell  `json:"rfids"`
	Start     grid.Cell    `json:"start"`
	Goal      grid.Cell    `json:"goal"`
	Agent     int          `json:"car"`
	Path      []grid.Cell  `json:"path"`
	Visited   []grid.Cell  `json:"visited"`
	Pending   []grid.Cell  `json:"pending_walls"`
	Masked    grid.CellSet `json:"masked"`
	Reached   bool         `json:"reached"`
	CreatedAt time.Time    `json:"created_at"`
}

// Snapshot returns the session state. It fails with NOT_INITIALIZED when no
// planner is active.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return nil, errs.New(errs.ErrCodeNotInitialized, "no active path; request one first")
	}
	p := s.run.planner
	path := p.Path()
	return &Snapshot{
		ID:        s.id,
		MapName:   s.m.Name,
		Width:     s.m.Width,
		Height:    s.m.Height,
		Walls:     s.obstacles.Clone(),
		Tracks:    s.tracks.Clone(),
		Markers:   append([]grid.Cell(nil), s.m.Markers...),
		Start:     p.Origin(),
		Goal:      p.Goal(),
		Agent:     s.run.agent,
		Path:      path,
		Visited:   p.Visited(),
		Pending:   s.temps.Pending(),
		Masked:    s.run.masks.Clone(),
		Reached:   p.Reached(path),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// LoadSnapshot reads a persisted snapshot by session ID.
func LoadSnapshot(ctx context.Context, store cache.Cache, keyer cache.Keyer, id string) (*Snapshot, error) {
	if err := errs.ValidateSessionID(id); err != nil {
		return nil, err
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	data, ok, err := store.Get(ctx, keyer.SnapshotKey(id))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read snapshot %s", id)
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "snapshot")
		return nil, errs.New(errs.ErrCodeNotFound, "no snapshot for session %s", id)
	}
	observability.Cache().OnCacheHit(ctx, "snapshot")

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "decode snapshot %s", id)
	}
	return &snap, nil
}
