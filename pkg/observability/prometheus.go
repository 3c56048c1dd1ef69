package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	computeTotal    *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	expansions      *prometheus.HistogramVec
	reinsertions    *prometheus.CounterVec
	pathTotal       *prometheus.CounterVec
	pathLength      prometheus.Histogram
	requestErrors   *prometheus.CounterVec
	obstacleEvents  *prometheus.CounterVec
	cacheEvents     *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		computeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_compute_total",
			Help: "Convergence runs by triggering operation",
		}, []string{"reason"}),
		computeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackplan_compute_duration_seconds",
			Help:    "Convergence run latency",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
		}, []string{"reason"}),
		expansions: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackplan_compute_expansions",
			Help:    "Cells expanded per convergence run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"reason"}),
		reinsertions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_frontier_reinsertions_total",
			Help: "Stale frontier entries reinserted with a fresh key",
		}, []string{"reason"}),
		pathTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_paths_total",
			Help: "Extracted routes by outcome",
		}, []string{"reason", "reached"}),
		pathLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trackplan_path_cells",
			Help:    "Cells per extracted route",
			Buckets: prometheus.LinearBuckets(1, 5, 12),
		}),
		requestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_request_errors_total",
			Help: "Failed session operations by error code",
		}, []string{"reason", "code"}),
		obstacleEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_temporary_obstacles_total",
			Help: "Temporary obstacle lifecycle events",
		}, []string{"event"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_store_operations_total",
			Help: "Snapshot store operations",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "trackplan_store_written_bytes_total",
			Help: "Bytes written to the snapshot store",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trackplan_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trackplan_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (p *Prometheus) OnCompute(_ context.Context, reason string, expansions, reinsertions int, d time.Duration) {
	p.computeTotal.WithLabelValues(reason).Inc()
	p.computeDuration.WithLabelValues(reason).Observe(d.Seconds())
	p.expansions.WithLabelValues(reason).Observe(float64(expansions))
	p.reinsertions.WithLabelValues(reason).Add(float64(reinsertions))
}

func (p *Prometheus) OnPath(_ context.Context, reason string, cells int, reached bool) {
	p.pathTotal.WithLabelValues(reason, strconv.FormatBool(reached)).Inc()
	p.pathLength.Observe(float64(cells))
}

func (p *Prometheus) OnRequestError(_ context.Context, reason, code string) {
	p.requestErrors.WithLabelValues(reason, code).Inc()
}

func (p *Prometheus) OnScheduled(context.Context, time.Duration) {
	p.obstacleEvents.WithLabelValues("scheduled").Inc()
}

func (p *Prometheus) OnExpired(context.Context) {
	p.obstacleEvents.WithLabelValues("expired").Inc()
}

func (p *Prometheus) OnCancelled(context.Context) {
	p.obstacleEvents.WithLabelValues("cancelled").Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
