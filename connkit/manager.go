package connkit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateManager is the single source of truth for one logical connection:
// its lifecycle state, metadata (quality, latency, identifier, last error),
// and a reconnect-attempt counter. It notifies registered listeners
// synchronously on every accepted transition.
//
// A StateManager is safe for concurrent use. Construct one per logical
// connection; there is no process-wide instance.
type StateManager struct {
	mu     sync.Mutex
	logger Logger
	now    func() time.Time

	state             ConnectionState
	reconnectAttempts int
	quality           ConnectionQuality
	connectionID      string
	latency           time.Duration
	lastConnectedTime time.Time
	lastError         ConnectionError
	lastErrorMessage  string

	listenerSeq uint64
	listeners   []stateListener
}

type stateListener struct {
	id uint64
	fn func(StateEvent)
}

// NewStateManager constructs a manager in StateDisconnected with default
// metadata (QualityGood, zero latency, no identifier, no recorded error).
func NewStateManager() *StateManager {
	return &StateManager{
		logger:  noopLogger{},
		now:     time.Now,
		state:   StateDisconnected,
		quality: QualityGood,
	}
}

// SetLogger overrides the logger (optional).
func (m *StateManager) SetLogger(l Logger) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// State returns the current connection state.
func (m *StateManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetState transitions to next. Setting the state it already holds is a
// no-op: no listener fires and no metadata changes.
//
// A transition into StateFailed through SetState retains any previously
// recorded error; use Fail to record a new one.
func (m *StateManager) SetState(next ConnectionState) {
	m.apply(next, ErrorNone, "", false)
}

// Fail transitions to StateFailed and records the failure reason. The code
// and message are stored together and cleared together on the next
// transition into StateConnected.
func (m *StateManager) Fail(code ConnectionError, message string) {
	m.apply(StateFailed, code, message, true)
}

func (m *StateManager) apply(next ConnectionState, code ConnectionError, message string, haveErr bool) {
	m.mu.Lock()
	if next == m.state {
		m.mu.Unlock()
		return
	}

	prev := m.state
	switch next {
	case StateReconnecting:
		m.reconnectAttempts++
	case StateConnected:
		m.reconnectAttempts = 0
		m.lastConnectedTime = m.now()
		m.lastError = ErrorNone
		m.lastErrorMessage = ""
	case StateFailed:
		if haveErr {
			m.lastError = code
			m.lastErrorMessage = message
		}
	}
	m.state = next

	ev := StateEvent{
		Previous:     prev,
		Current:      next,
		Timestamp:    m.now(),
		Error:        code,
		ErrorMessage: message,
	}
	snapshot := make([]stateListener, len(m.listeners))
	copy(snapshot, m.listeners)
	logger := m.logger
	m.mu.Unlock()

	// Listeners run outside the lock so a callback may call back into the
	// manager without deadlocking.
	for _, l := range snapshot {
		invokeListener(logger, l.fn, ev)
	}
}

// invokeListener isolates one callback so a panicking subscriber cannot
// break the fan-out for the rest.
func invokeListener(logger Logger, fn func(StateEvent), ev StateEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("state change listener panicked", map[string]any{
				"previous": ev.Previous.String(),
				"current":  ev.Current.String(),
				"panic":    r,
			})
		}
	}()
	fn(ev)
}

// OnStateChange registers a callback invoked on every accepted transition,
// in registration order. The same callback may be registered more than once
// and will fire once per registration. The returned function removes exactly
// that registration; calling it again is a no-op.
func (m *StateManager) OnStateChange(fn func(StateEvent)) func() {
	m.mu.Lock()
	m.listenerSeq++
	id := m.listenerSeq
	m.listeners = append(m.listeners, stateListener{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// ReconnectAttempts reports how many transitions into StateReconnecting
// happened since the last successful connection.
func (m *StateManager) ReconnectAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconnectAttempts
}

// Quality returns the current connection quality label.
func (m *StateManager) Quality() ConnectionQuality {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quality
}

// SetQuality updates the quality label. It does not notify listeners.
func (m *StateManager) SetQuality(q ConnectionQuality) {
	m.mu.Lock()
	m.quality = q
	m.mu.Unlock()
}

// ConnectionID returns the caller-assigned connection identifier, or the
// empty string if none was set.
func (m *StateManager) ConnectionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectionID
}

// SetConnectionID assigns an opaque connection identifier. It does not
// notify listeners.
func (m *StateManager) SetConnectionID(id string) {
	m.mu.Lock()
	m.connectionID = id
	m.mu.Unlock()
}

// Latency returns the last recorded round-trip latency.
func (m *StateManager) Latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latency
}

// SetLatency records a latency measurement. It does not notify listeners.
func (m *StateManager) SetLatency(d time.Duration) {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
}

// LastConnectedTime returns when the connection last entered
// StateConnected, or the zero time if it never has.
func (m *StateManager) LastConnectedTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastConnectedTime
}

// LastError returns the most recently recorded failure code, or ErrorNone.
func (m *StateManager) LastError() ConnectionError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// LastErrorMessage returns the message recorded with the last failure, or
// the empty string.
func (m *StateManager) LastErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErrorMessage
}

// IsConnected reports whether the connection is established.
func (m *StateManager) IsConnected() bool {
	return m.State() == StateConnected
}

// IsConnecting reports whether a connection attempt (first or repeat) is in
// progress.
func (m *StateManager) IsConnecting() bool {
	s := m.State()
	return s == StateConnecting || s == StateReconnecting
}

// HasFailed reports whether the last attempt failed.
func (m *StateManager) HasFailed() bool {
	return m.State() == StateFailed
}

// IsOffline reports whether the network is considered unavailable.
func (m *StateManager) IsOffline() bool {
	return m.State() == StateOffline
}

// Reset restores every field to its construction-time default. It is an
// administrative reset, not a transition: listeners stay registered and no
// event fires.
func (m *StateManager) Reset() {
	m.mu.Lock()
	m.state = StateDisconnected
	m.reconnectAttempts = 0
	m.quality = QualityGood
	m.connectionID = ""
	m.latency = 0
	m.lastConnectedTime = time.Time{}
	m.lastError = ErrorNone
	m.lastErrorMessage = ""
	m.mu.Unlock()
}

// NewConnectionID returns a fresh opaque connection identifier for callers
// that do not have a backend-assigned one.
func NewConnectionID() string {
	return uuid.NewString()
}
