package session_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/trackplan/pkg/cache"
	errs "github.com/matzehuels/trackplan/pkg/errors"
	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/mapdata"
	"github.com/matzehuels/trackplan/pkg/observability"
	"github.com/matzehuels/trackplan/pkg/obstacle"
	"github.com/matzehuels/trackplan/pkg/session"
)

func newSession(t *testing.T, m *mapdata.Map) (*session.Session, *obstacle.ManualScheduler) {
	t.Helper()
	clock := obstacle.NewManualScheduler()
	s, err := session.New(m, session.Options{
		Logger:    log.New(io.Discard),
		Scheduler: clock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func openMap(w, h int, walls ...grid.Cell) *mapdata.Map {
	return &mapdata.Map{Width: w, Height: h, Walls: walls}
}

func cellPtr(x, y int) *grid.Cell {
	c := grid.C(x, y)
	return &c
}

func requireCode(t *testing.T, err error, code errs.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errs.GetCode(err), "error: %v", err)
}

func TestNewRejectsInvalidMap(t *testing.T) {
	_, err := session.New(openMap(0, 3), session.Options{Logger: log.New(io.Discard)})
	requireCode(t, err, errs.ErrCodeInvalidMap)

	_, err = session.New(nil, session.Options{})
	requireCode(t, err, errs.ErrCodeInvalidMap)
}

func TestNewPathOpenGrid(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	res, err := s.NewPath(ctx, session.PathRequest{
		Starts: []grid.Cell{grid.C(0, 0)},
		Goal:   cellPtr(4, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, []grid.Cell{grid.C(0, 0), grid.C(1, 1), grid.C(2, 2), grid.C(3, 3), grid.C(4, 4)}, res.Path)
	assert.Zero(t, res.Agent)
	assert.InDelta(t, 4*1.41421, res.Cost, 1e-4)
}

func TestUpdateMapReroutes(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)

	upd, err := s.UpdateMap(ctx, grid.C(1, 1))
	require.NoError(t, err)
	assert.True(t, upd.Blocked)
	assert.True(t, upd.Replanned)
	assert.NotContains(t, upd.Path, grid.C(1, 1))
	assert.Equal(t, grid.C(4, 4), upd.Path[len(upd.Path)-1])

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Walls.Has(grid.C(1, 1)))
	assert.Equal(t, upd.Path, snap.Path)
}

func TestSelectorMasksOtherAgents(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	res, err := s.NewPath(ctx, session.PathRequest{
		Starts: []grid.Cell{grid.C(0, 0), grid.C(4, 0)},
		Goal:   cellPtr(0, 4),
	})
	require.NoError(t, err)
	assert.Zero(t, res.Agent)
	assert.Equal(t, grid.C(0, 0), res.Path[0])
	assert.NotContains(t, res.Path, grid.C(4, 0))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Masked.Has(grid.C(4, 0)))
	assert.False(t, snap.Walls.Has(grid.C(4, 0)), "mask leaked into the session obstacle set")
	assert.False(t, s.Obstacles().Has(grid.C(4, 0)))
}

func TestMasksSurviveMapUpdates(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	res, err := s.NewPath(ctx, session.PathRequest{
		Starts: []grid.Cell{grid.C(0, 0), grid.C(4, 0)},
		Goal:   cellPtr(4, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Agent)

	upd, err := s.UpdateMap(ctx, grid.C(2, 4))
	require.NoError(t, err)
	assert.NotContains(t, upd.Path, grid.C(0, 0))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Masked.Has(grid.C(0, 0)))
}

func TestTemporaryObstacleJoinsLaterRequests(t *testing.T) {
	ctx := context.Background()
	corridor := []grid.Cell{grid.C(0, 0), grid.C(1, 0), grid.C(2, 0), grid.C(3, 0), grid.C(4, 0)}

	tests := []struct {
		name string
		temp grid.Cell
	}{
		{"on the route", grid.C(2, 0)},
		{"on the goal", grid.C(4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSession(t, openMap(5, 1))

			res, err := s.NewPath(ctx, session.PathRequest{
				Starts:       []grid.Cell{grid.C(0, 0)},
				Goal:         cellPtr(4, 0),
				TempObstacle: &tt.temp,
			})
			require.NoError(t, err)
			assert.Equal(t, corridor, res.Path)
			assert.True(t, s.Obstacles().Has(tt.temp))
			assert.Equal(t, []grid.Cell{tt.temp}, s.PendingObstacles())

			_, err = s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 0)})
			requireCode(t, err, errs.ErrCodeUnreachableGoal)
		})
	}
}

func TestTemporaryObstacleExpires(t *testing.T) {
	ctx := context.Background()
	s, clock := newSession(t, openMap(5, 5))
	straight := []grid.Cell{grid.C(0, 2), grid.C(1, 2), grid.C(2, 2), grid.C(3, 2), grid.C(4, 2)}
	detour := []grid.Cell{grid.C(0, 2), grid.C(1, 2), grid.C(2, 1), grid.C(3, 1), grid.C(4, 2)}

	res, err := s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 2)},
		Goal:         cellPtr(4, 2),
		TempObstacle: cellPtr(2, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, straight, res.Path)
	assert.Equal(t, []grid.Cell{grid.C(2, 2)}, s.PendingObstacles())

	// An unrelated update re-syncs the planner, which now sees the obstacle.
	upd, err := s.UpdateMap(ctx, grid.C(0, 0))
	require.NoError(t, err)
	assert.Equal(t, detour, upd.Path)
	assert.True(t, upd.Reached)

	clock.Advance(obstacle.DefaultDelay)
	assert.False(t, s.Obstacles().Has(grid.C(2, 2)))
	assert.Empty(t, s.PendingObstacles())

	// Updating the expired cell toggles it from free, so it is blocked again
	// and no longer scheduled.
	upd, err = s.UpdateMap(ctx, grid.C(2, 2))
	require.NoError(t, err)
	assert.True(t, upd.Blocked)
	assert.True(t, s.Obstacles().Has(grid.C(2, 2)))
	assert.Equal(t, detour, upd.Path)
	clock.Advance(time.Minute)
	assert.True(t, s.Obstacles().Has(grid.C(2, 2)))

	upd, err = s.UpdateMap(ctx, grid.C(2, 2))
	require.NoError(t, err)
	assert.False(t, upd.Blocked)
	assert.False(t, s.Obstacles().Has(grid.C(2, 2)))
	assert.Equal(t, straight, upd.Path)
}

func TestTemporaryObstacleOnWallIsNotScheduled(t *testing.T) {
	ctx := context.Background()
	s, clock := newSession(t, openMap(5, 5, grid.C(2, 0)))

	_, err := s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 4)},
		Goal:         cellPtr(4, 4),
		TempObstacle: cellPtr(2, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, s.PendingObstacles())

	clock.Advance(time.Minute)
	assert.True(t, s.Obstacles().Has(grid.C(2, 0)))
}

func TestUpdateMapCancelsPendingExpiry(t *testing.T) {
	ctx := context.Background()
	s, clock := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 0)},
		Goal:         cellPtr(4, 0),
		TempObstacle: cellPtr(2, 4),
	})
	require.NoError(t, err)

	upd, err := s.UpdateMap(ctx, grid.C(2, 4))
	require.NoError(t, err)
	assert.False(t, upd.Blocked)
	assert.Empty(t, s.PendingObstacles())

	_, err = s.UpdateMap(ctx, grid.C(2, 4))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	assert.True(t, s.Obstacles().Has(grid.C(2, 4)), "manual wall removed by a stale expiry")
}

func TestStartEqualsGoal(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(4, 4))

	res, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(2, 2)}, Goal: cellPtr(2, 2)})
	require.NoError(t, err)
	assert.Equal(t, []grid.Cell{grid.C(2, 2)}, res.Path)

	step, err := s.Step(ctx)
	require.NoError(t, err)
	assert.True(t, step.Finished)
	assert.Equal(t, grid.C(2, 2), step.Start)
}

func TestStepWalksToGoal(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)

	var last session.StepResult
	for i := 0; i < 4; i++ {
		last, err = s.Step(ctx)
		require.NoError(t, err)
		assert.Equal(t, i == 3, last.Finished, "step %d", i)
	}
	assert.Equal(t, grid.C(4, 4), last.Start)
	assert.Equal(t, []grid.Cell{grid.C(1, 1), grid.C(2, 2), grid.C(3, 3), grid.C(4, 4)}, last.Visited)

	again, err := s.Step(ctx)
	require.NoError(t, err)
	assert.True(t, again.Finished)
	assert.Equal(t, last.Visited, again.Visited)
}

func TestRequestErrors(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 1, grid.C(2, 0)))

	_, err := s.Step(ctx)
	requireCode(t, err, errs.ErrCodeNotInitialized)

	_, err = s.Snapshot(ctx)
	requireCode(t, err, errs.ErrCodeNotInitialized)

	tests := []struct {
		name string
		req  session.PathRequest
		code errs.Code
	}{
		{"no starts", session.PathRequest{Goal: cellPtr(4, 0)}, errs.ErrCodeInvalidRequest},
		{"no goal", session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}}, errs.ErrCodeInvalidRequest},
		{"start outside", session.PathRequest{Starts: []grid.Cell{grid.C(5, 0)}, Goal: cellPtr(4, 0)}, errs.ErrCodeInvalidRequest},
		{"goal outside", session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(0, 1)}, errs.ErrCodeInvalidRequest},
		{"obstacle outside", session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(1, 0), TempObstacle: cellPtr(-1, 0)}, errs.ErrCodeInvalidRequest},
		{"walled off", session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 0)}, errs.ErrCodeUnreachableGoal},
		{"start on wall", session.PathRequest{Starts: []grid.Cell{grid.C(2, 0)}, Goal: cellPtr(4, 0)}, errs.ErrCodeUnreachableGoal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.NewPath(ctx, tt.req)
			requireCode(t, err, tt.code)
			assert.False(t, s.Active())
			assert.Empty(t, s.PendingObstacles())
		})
	}

	_, err = s.UpdateMap(ctx, grid.C(9, 9))
	requireCode(t, err, errs.ErrCodeInvalidRequest)
}

func TestFailedRequestKeepsPreviousPlanner(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5, grid.C(3, 4), grid.C(4, 3), grid.C(3, 3)))

	_, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(2, 2)})
	require.NoError(t, err)

	_, err = s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 0)},
		Goal:         cellPtr(4, 4),
		TempObstacle: cellPtr(1, 0),
	})
	requireCode(t, err, errs.ErrCodeUnreachableGoal)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, grid.C(2, 2), snap.Goal)
	assert.False(t, snap.Walls.Has(grid.C(1, 0)), "failed request placed its temporary obstacle")
}

func TestTruncatedRouteIsFlagged(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)

	upd, err := s.UpdateMap(ctx, grid.C(2, 2))
	require.NoError(t, err)
	assert.Equal(t, []grid.Cell{grid.C(0, 0), grid.C(1, 1)}, upd.Path)
	assert.False(t, upd.Reached)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Reached)

	step, err := s.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, grid.C(1, 1), step.Start)
	assert.Equal(t, []grid.Cell{grid.C(1, 1), grid.C(1, 2), grid.C(2, 3), grid.C(3, 3), grid.C(4, 4)}, step.Path)
	assert.True(t, step.Reached)
	assert.False(t, step.Finished)
}

func TestResetKeepsObstacles(t *testing.T) {
	ctx := context.Background()
	s, clock := newSession(t, openMap(5, 5))

	_, err := s.UpdateMap(ctx, grid.C(1, 1))
	require.NoError(t, err)
	_, err = s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 0)},
		Goal:         cellPtr(4, 4),
		TempObstacle: cellPtr(3, 0),
	})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))
	assert.False(t, s.Active())
	assert.True(t, s.Obstacles().Has(grid.C(1, 1)), "manual wall lost on reset")
	assert.Equal(t, []grid.Cell{grid.C(3, 0)}, s.PendingObstacles())

	clock.Advance(obstacle.DefaultDelay)
	assert.False(t, s.Obstacles().Has(grid.C(3, 0)))

	res, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)
	assert.Equal(t, []grid.Cell{grid.C(0, 0), grid.C(0, 1), grid.C(1, 2), grid.C(2, 2), grid.C(3, 3), grid.C(4, 4)}, res.Path)
}

func TestUpdateWithoutPlannerOnlyToggles(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(3, 3))

	upd, err := s.UpdateMap(ctx, grid.C(1, 1))
	require.NoError(t, err)
	assert.True(t, upd.Blocked)
	assert.False(t, upd.Replanned)
	assert.True(t, s.Obstacles().Has(grid.C(1, 1)))
	assert.False(t, s.Active())
}

// panickingHooks fails inside the planning critical section.
type panickingHooks struct{ observability.NoopPlannerHooks }

func (panickingHooks) OnCompute(context.Context, string, int, int, time.Duration) {
	panic("instrumentation failure")
}

func TestPanicRollsBackAtomically(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)
	before, err := s.Snapshot(ctx)
	require.NoError(t, err)

	observability.SetPlannerHooks(panickingHooks{})
	defer observability.Reset()

	_, err = s.UpdateMap(ctx, grid.C(2, 2))
	requireCode(t, err, errs.ErrCodeInternal)
	_, err = s.Step(ctx)
	requireCode(t, err, errs.ErrCodeInternal)

	observability.Reset()
	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, after.Walls.Has(grid.C(2, 2)))
	assert.Equal(t, before.Path, after.Path)
	assert.Equal(t, before.Start, after.Start)
	assert.Empty(t, after.Visited)
}

func TestSnapshotPersistence(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	m := openMap(5, 5)
	m.Markers = []grid.Cell{grid.C(4, 0)}
	s, err := session.New(m, session.Options{Logger: log.New(io.Discard), Store: store})
	require.NoError(t, err)
	defer s.Close()

	res, err := s.NewPath(ctx, session.PathRequest{Starts: []grid.Cell{grid.C(0, 0)}, Goal: cellPtr(4, 4)})
	require.NoError(t, err)

	snap, err := session.LoadSnapshot(ctx, store, nil, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), snap.ID)
	assert.Equal(t, res.Path, snap.Path)
	assert.Equal(t, []grid.Cell{grid.C(4, 0)}, snap.Markers)
	assert.True(t, snap.Reached)

	require.NoError(t, s.Reset(ctx))
	_, err = session.LoadSnapshot(ctx, store, nil, s.ID())
	requireCode(t, err, errs.ErrCodeNotFound)

	_, err = session.LoadSnapshot(ctx, store, nil, "../etc")
	requireCode(t, err, errs.ErrCodeInvalidRequest)
}

func TestReplaceMapDropsPlanner(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t, openMap(5, 5))

	_, err := s.NewPath(ctx, session.PathRequest{
		Starts:       []grid.Cell{grid.C(0, 0)},
		Goal:         cellPtr(4, 4),
		TempObstacle: cellPtr(2, 3),
	})
	require.NoError(t, err)

	require.NoError(t, s.ReplaceMap(ctx, openMap(3, 3, grid.C(1, 1))))
	assert.False(t, s.Active())
	assert.Empty(t, s.PendingObstacles())
	assert.Equal(t, 3, s.Map().Width)
	assert.Equal(t, []grid.Cell{grid.C(1, 1)}, s.Obstacles().Sorted())

	_, err = s.Step(ctx)
	requireCode(t, err, errs.ErrCodeNotInitialized)

	requireCode(t, s.ReplaceMap(ctx, openMap(-1, 3)), errs.ErrCodeInvalidMap)
}
