// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about planning runs, temporary obstacles, snapshot storage
// and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Libraries never import a metrics backend; main wires one in. [Prometheus]
// is the implementation used by the server.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    m := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	    observability.Register(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	stats := planner.ComputeShortestPath()
//	observability.Planner().OnCompute(ctx, "new_path", stats.Expansions, stats.Reinsertions, stats.Duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Planner Hooks
// =============================================================================

// PlannerHooks receives events from path planning.
type PlannerHooks interface {
	// OnCompute records one convergence run. Reason names the operation that
	// triggered it: "new_path", "update_map" or "step".
	OnCompute(ctx context.Context, reason string, expansions, reinsertions int, duration time.Duration)

	// OnPath records an extracted route and whether it reached the goal.
	OnPath(ctx context.Context, reason string, cells int, reached bool)

	// OnRequestError records a failed session operation by error code.
	OnRequestError(ctx context.Context, reason, code string)
}

// =============================================================================
// Obstacle Hooks
// =============================================================================

// ObstacleHooks receives events from temporary obstacle scheduling.
type ObstacleHooks interface {
	// OnScheduled records a temporary obstacle being placed.
	OnScheduled(ctx context.Context, delay time.Duration)

	// OnExpired records a temporary obstacle being removed by its timer.
	OnExpired(ctx context.Context)

	// OnCancelled records a pending expiry cancelled before it fired.
	OnCancelled(ctx context.Context)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from snapshot store operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request on a route pattern.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the status and latency of a served request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPlannerHooks is a no-op implementation of PlannerHooks.
type NoopPlannerHooks struct{}

func (NoopPlannerHooks) OnCompute(context.Context, string, int, int, time.Duration) {}
func (NoopPlannerHooks) OnPath(context.Context, string, int, bool)                  {}
func (NoopPlannerHooks) OnRequestError(context.Context, string, string)             {}

// NoopObstacleHooks is a no-op implementation of ObstacleHooks.
type NoopObstacleHooks struct{}

func (NoopObstacleHooks) OnScheduled(context.Context, time.Duration) {}
func (NoopObstacleHooks) OnExpired(context.Context)                  {}
func (NoopObstacleHooks) OnCancelled(context.Context)                {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	plannerHooks  PlannerHooks  = NoopPlannerHooks{}
	obstacleHooks ObstacleHooks = NoopObstacleHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPlannerHooks registers custom planner hooks.
// This should be called once at application startup before any planning.
func SetPlannerHooks(h PlannerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		plannerHooks = h
	}
}

// SetObstacleHooks registers custom obstacle hooks.
func SetObstacleHooks(h ObstacleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		obstacleHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Register installs every hook category implemented by h.
func Register(h any) {
	if p, ok := h.(PlannerHooks); ok {
		SetPlannerHooks(p)
	}
	if o, ok := h.(ObstacleHooks); ok {
		SetObstacleHooks(o)
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
	}
}

// Planner returns the registered planner hooks.
func Planner() PlannerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return plannerHooks
}

// Obstacles returns the registered obstacle hooks.
func Obstacles() ObstacleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return obstacleHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	plannerHooks = NoopPlannerHooks{}
	obstacleHooks = NoopObstacleHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
