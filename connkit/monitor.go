package connkit

import (
	"context"
	"sync"
)

// ProbeFunc reports one backend's instantaneous health. A probe that
// returns an error or panics counts as unhealthy; the failure never
// propagates to the monitor's caller.
type ProbeFunc func(ctx context.Context) (bool, error)

// HealthStatus is a snapshot of the monitor's last committed tick.
type HealthStatus struct {
	// Healthy is the logical AND of every backend's most recent result.
	Healthy bool

	// Backends maps each registered probe name to its most recent result.
	Backends map[string]bool
}

// HealthMonitor periodically polls named probes and aggregates their
// results into an overall health flag. Until the first tick completes every
// backend is reported optimistically healthy.
//
// Probes within one tick run concurrently; ticks never overlap — the next
// tick is not scheduled for evaluation until the previous tick's probes
// have all settled.
type HealthMonitor struct {
	cfg    MonitorConfig
	logger Logger

	mu      sync.Mutex
	names   []string
	probes  map[string]ProbeFunc
	results map[string]bool
	running bool
	gen     uint64
	stopCh  chan struct{}

	statusSeq  uint64
	statusSubs []statusListener
}

type statusListener struct {
	id uint64
	fn func(HealthStatus)
}

// NewHealthMonitor constructs a monitor. Register probes, then call Start.
func NewHealthMonitor(cfg MonitorConfig) *HealthMonitor {
	cfg.Validate()
	return &HealthMonitor{
		cfg:     cfg,
		logger:  noopLogger{},
		probes:  make(map[string]ProbeFunc),
		results: make(map[string]bool),
	}
}

// SetLogger overrides the logger (optional).
func (m *HealthMonitor) SetLogger(l Logger) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// Register adds a named probe. Registering a name again replaces the probe
// but keeps its last result. The new backend starts out healthy until its
// first tick.
func (m *HealthMonitor) Register(name string, probe ProbeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.probes[name]; !ok {
		m.names = append(m.names, name)
		m.results[name] = true
	}
	m.probes[name] = probe
}

// Start begins recurring health checks. Calling Start on a running monitor
// is a no-op.
func (m *HealthMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.gen++
	m.stopCh = make(chan struct{})
	go m.run(m.gen, m.stopCh)
}

// Stop cancels future ticks. Probes already in flight may still settle but
// their results are discarded. Stop is idempotent.
func (m *HealthMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	m.gen++
	close(m.stopCh)
}

// Status returns the last-known health snapshot. Safe to call at any time.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *HealthMonitor) snapshotLocked() HealthStatus {
	st := HealthStatus{Healthy: true, Backends: make(map[string]bool, len(m.results))}
	for name, ok := range m.results {
		st.Backends[name] = ok
		if !ok {
			st.Healthy = false
		}
	}
	return st
}

// OnStatus registers a callback fired with a fresh snapshot after every
// committed tick. The returned function removes the registration; calling
// it twice is a no-op.
func (m *HealthMonitor) OnStatus(fn func(HealthStatus)) func() {
	m.mu.Lock()
	m.statusSeq++
	id := m.statusSeq
	m.statusSubs = append(m.statusSubs, statusListener{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.statusSubs {
			if s.id == id {
				m.statusSubs = append(m.statusSubs[:i], m.statusSubs[i+1:]...)
				return
			}
		}
	}
}

func (m *HealthMonitor) run(gen uint64, stopCh chan struct{}) {
	ticker := m.cfg.Clock.Ticker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			// tick blocks until all probes settle, so ticks never overlap.
			m.tick(gen)
		}
	}
}

func (m *HealthMonitor) tick(gen uint64) {
	m.mu.Lock()
	names := make([]string, len(m.names))
	copy(names, m.names)
	probes := make(map[string]ProbeFunc, len(m.probes))
	for name, p := range m.probes {
		probes[name] = p
	}
	logger := m.logger
	m.mu.Unlock()

	results := make([]bool, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string, probe ProbeFunc) {
			defer wg.Done()
			results[i] = m.runProbe(name, probe, logger)
		}(i, name, probes[name])
	}
	wg.Wait()

	m.mu.Lock()
	if m.gen != gen {
		// Stopped (or restarted) while probes were in flight.
		m.mu.Unlock()
		return
	}
	for i, name := range names {
		m.results[name] = results[i]
	}
	st := m.snapshotLocked()
	subs := make([]statusListener, len(m.statusSubs))
	copy(subs, m.statusSubs)
	m.mu.Unlock()

	for _, s := range subs {
		invokeStatus(logger, s.fn, st)
	}
}

// invokeStatus isolates one status callback so a panicking subscriber
// cannot take down the monitor goroutine.
func invokeStatus(logger Logger, fn func(HealthStatus), st HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("health status listener panicked", map[string]any{"panic": r})
		}
	}()
	fn(st)
}

func (m *HealthMonitor) runProbe(name string, probe ProbeFunc, logger Logger) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("health probe panicked", map[string]any{"backend": name, "panic": r})
			healthy = false
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
	defer cancel()

	ok, err := probe(ctx)
	if err != nil {
		logger.Warn("health probe failed", map[string]any{"backend": name, "error": err.Error()})
		return false
	}
	return ok
}
