package connkit

import "github.com/prometheus/client_golang/prometheus"

// ConnectionMetrics exports one StateManager's lifecycle to Prometheus:
// the current state as a numeric code, transitions by (from, to) pair, and
// the running count of reconnect attempts.
type ConnectionMetrics struct {
	state       prometheus.Gauge
	transitions *prometheus.CounterVec
	reconnects  prometheus.Counter
}

// NewConnectionMetrics builds and registers the connection collectors. The
// connection label distinguishes managers when an application runs several.
func NewConnectionMetrics(reg prometheus.Registerer, connection string) *ConnectionMetrics {
	labels := prometheus.Labels{"connection": connection}
	cm := &ConnectionMetrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "connkit_connection_state",
			Help:        "Current connection state code (0=disconnected ... 5=offline).",
			ConstLabels: labels,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "connkit_connection_transitions_total",
			Help:        "Accepted state transitions by previous and current state.",
			ConstLabels: labels,
		}, []string{"from", "to"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "connkit_reconnect_attempts_total",
			Help:        "Total transitions into the reconnecting state.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(cm.state, cm.transitions, cm.reconnects)
	return cm
}

// Attach subscribes to the manager's transitions and returns a detach
// function.
func (cm *ConnectionMetrics) Attach(m *StateManager) func() {
	cm.state.Set(float64(m.State()))
	return m.OnStateChange(func(ev StateEvent) {
		cm.state.Set(float64(ev.Current))
		cm.transitions.WithLabelValues(ev.Previous.String(), ev.Current.String()).Inc()
		if ev.Current == StateReconnecting {
			cm.reconnects.Inc()
		}
	})
}

// HealthMetrics exports a HealthMonitor's snapshots to Prometheus: one
// gauge per backend plus the overall AND.
type HealthMetrics struct {
	overall  prometheus.Gauge
	backends *prometheus.GaugeVec
}

// NewHealthMetrics builds and registers the health collectors.
func NewHealthMetrics(reg prometheus.Registerer) *HealthMetrics {
	hm := &HealthMetrics{
		overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "connkit_overall_healthy",
			Help: "1 when every monitored backend reported healthy on the last tick.",
		}),
		backends: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "connkit_backend_healthy",
			Help: "1 when the backend reported healthy on the last tick.",
		}, []string{"backend"}),
	}
	reg.MustRegister(hm.overall, hm.backends)
	return hm
}

// Attach subscribes to the monitor's committed ticks and returns a detach
// function.
func (hm *HealthMetrics) Attach(mon *HealthMonitor) func() {
	return mon.OnStatus(func(st HealthStatus) {
		hm.overall.Set(boolGauge(st.Healthy))
		for name, ok := range st.Backends {
			hm.backends.WithLabelValues(name).Set(boolGauge(ok))
		}
	})
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
