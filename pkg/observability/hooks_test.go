package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPlannerHooks{}
	p.OnCompute(ctx, "new_path", 12, 1, time.Millisecond)
	p.OnPath(ctx, "new_path", 5, true)
	p.OnRequestError(ctx, "step", "NOT_INITIALIZED")

	o := NoopObstacleHooks{}
	o.OnScheduled(ctx, 4*time.Second)
	o.OnExpired(ctx)
	o.OnCancelled(ctx)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "snapshot")
	c.OnCacheMiss(ctx, "snapshot")
	c.OnCacheSet(ctx, "snapshot", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/map")
	h.OnResponse(ctx, "GET", "/map", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Planner().(NoopPlannerHooks); !ok {
		t.Error("Planner() should return NoopPlannerHooks by default")
	}
	if _, ok := Obstacles().(NoopObstacleHooks); !ok {
		t.Error("Obstacles() should return NoopObstacleHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPlanner := &testPlannerHooks{}
	SetPlannerHooks(customPlanner)
	if Planner() != customPlanner {
		t.Error("SetPlannerHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Planner().(NoopPlannerHooks); !ok {
		t.Error("Reset() should restore NoopPlannerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPlannerHooks{}
	SetPlannerHooks(custom)
	SetPlannerHooks(nil)

	if Planner() != custom {
		t.Error("SetPlannerHooks(nil) should be ignored")
	}

	Reset()
}

func TestRegisterInstallsAllCategories(t *testing.T) {
	Reset()
	defer Reset()

	m := NewPrometheus(prometheus.NewRegistry())
	Register(m)

	if Planner() != PlannerHooks(m) {
		t.Error("Register should install planner hooks")
	}
	if Obstacles() != ObstacleHooks(m) {
		t.Error("Register should install obstacle hooks")
	}
	if Cache() != CacheHooks(m) {
		t.Error("Register should install cache hooks")
	}
	if HTTP() != HTTPHooks(m) {
		t.Error("Register should install HTTP hooks")
	}
}

func TestPrometheusCollects(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg)

	m.OnCompute(ctx, "step", 7, 2, time.Millisecond)
	m.OnCompute(ctx, "step", 3, 1, time.Millisecond)
	m.OnPath(ctx, "step", 4, false)
	m.OnScheduled(ctx, time.Second)
	m.OnExpired(ctx)
	m.OnCacheSet(ctx, "snapshot", 100)
	m.OnResponse(ctx, "POST", "/step", 200, time.Millisecond)

	if got := testutil.ToFloat64(m.computeTotal.WithLabelValues("step")); got != 2 {
		t.Errorf("compute total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.reinsertions.WithLabelValues("step")); got != 3 {
		t.Errorf("reinsertions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.pathTotal.WithLabelValues("step", "false")); got != 1 {
		t.Errorf("unreached paths = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cacheBytes); got != 100 {
		t.Errorf("store bytes = %v, want 100", got)
	}

	expected := `
# HELP trackplan_temporary_obstacles_total Temporary obstacle lifecycle events
# TYPE trackplan_temporary_obstacles_total counter
trackplan_temporary_obstacles_total{event="expired"} 1
trackplan_temporary_obstacles_total{event="scheduled"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "trackplan_temporary_obstacles_total"); err != nil {
		t.Error(err)
	}
}

type testPlannerHooks struct{ NoopPlannerHooks }
type testCacheHooks struct{ NoopCacheHooks }
