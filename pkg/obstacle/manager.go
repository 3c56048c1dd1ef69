package obstacle

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/trackplan/pkg/grid"
	"github.com/matzehuels/trackplan/pkg/observability"
)

// DefaultDelay is how long a temporary obstacle stays in place.
const DefaultDelay = 4 * time.Second

// Set is the obstacle membership a Manager mutates.
type Set interface {
	Has(c grid.Cell) bool
	Add(c grid.Cell) bool
	Remove(c grid.Cell) bool
}

// Options configures a Manager.
type Options struct {
	Delay     time.Duration // defaults to DefaultDelay
	Scheduler Scheduler     // defaults to RealScheduler
	Logger    *log.Logger   // defaults to log.Default()
}

// Manager schedules automatic removal of temporary obstacles.
type Manager struct {
	mu        sync.Locker
	set       Set
	delay     time.Duration
	scheduler Scheduler
	logger    *log.Logger

	pending map[grid.Cell]*expiry
	gen     uint64
}

type expiry struct {
	timer Timer
	gen   uint64
}

// NewManager returns a manager that mutates set and serializes expiry
// callbacks on mu.
func NewManager(mu sync.Locker, set Set, opts Options) *Manager {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Manager{
		mu:        mu,
		set:       set,
		delay:     opts.Delay,
		scheduler: opts.Scheduler,
		logger:    opts.Logger,
		pending:   make(map[grid.Cell]*expiry),
	}
}

// Delay returns the configured expiry delay.
func (m *Manager) Delay() time.Duration { return m.delay }

// Insert adds c to the set and schedules its removal. A cell that is already
// pending has its delay restarted. A cell that is already an obstacle but not
// pending is permanent and is left alone; Insert reports false in that case.
// The caller must hold the lock.
func (m *Manager) Insert(c grid.Cell) bool {
	if e, ok := m.pending[c]; ok {
		e.timer.Stop()
		m.schedule(c)
		m.logger.Debug("temporary obstacle renewed", "cell", c, "delay", m.delay)
		return true
	}
	if !m.set.Add(c) {
		return false
	}
	m.schedule(c)
	m.logger.Debug("temporary obstacle placed", "cell", c, "delay", m.delay)
	observability.Obstacles().OnScheduled(context.Background(), m.delay)
	return true
}

func (m *Manager) schedule(c grid.Cell) {
	m.gen++
	gen := m.gen
	e := &expiry{gen: gen}
	e.timer = m.scheduler.AfterFunc(m.delay, func() { m.expire(c, gen) })
	m.pending[c] = e
}

func (m *Manager) expire(c grid.Cell, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.pending[c]
	if !ok || e.gen != gen {
		return
	}
	delete(m.pending, c)
	m.set.Remove(c)
	m.logger.Info("temporary obstacle expired", "cell", c)
	observability.Obstacles().OnExpired(context.Background())
}

// Cancel drops the pending expiry for c without touching set membership. It
// reports whether c was pending. The caller must hold the lock.
func (m *Manager) Cancel(c grid.Cell) bool {
	e, ok := m.pending[c]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.pending, c)
	observability.Obstacles().OnCancelled(context.Background())
	return true
}

// Pending returns the cells awaiting expiry, sorted. The caller must hold the
// lock.
func (m *Manager) Pending() []grid.Cell {
	out := grid.NewCellSet()
	for c := range m.pending {
		out.Add(c)
	}
	return out.Sorted()
}

// IsPending reports whether c awaits expiry. The caller must hold the lock.
func (m *Manager) IsPending(c grid.Cell) bool {
	_, ok := m.pending[c]
	return ok
}

// Stop cancels every pending expiry. Cells stay in the set. The manager
// remains usable. The caller must hold the lock.
func (m *Manager) Stop() {
	for c := range m.pending {
		m.Cancel(c)
	}
}
