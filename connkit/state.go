package connkit

import "time"

// ConnectionState represents the current lifecycle state of a connection.
type ConnectionState int

const (
	// StateDisconnected means no connection is established. Initial state.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a first connection attempt is in progress.
	StateConnecting

	// StateConnected means the connection is established and ready.
	StateConnected

	// StateReconnecting means the connection was lost and a reconnect
	// attempt is in progress.
	StateReconnecting

	// StateFailed means the last connection attempt failed.
	StateFailed

	// StateOffline means the client has determined the network itself is
	// unavailable and attempts are suspended.
	StateOffline
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// ConnectionQuality is a coarse label for connection health, tracked
// independently of the lifecycle state.
type ConnectionQuality int

const (
	QualityPoor ConnectionQuality = iota
	QualityGood
	QualityExcellent
)

// String returns the string representation of a ConnectionQuality.
func (q ConnectionQuality) String() string {
	switch q {
	case QualityPoor:
		return "poor"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// StateEvent describes one accepted state transition. It is built once per
// transition and passed by value to every registered listener.
type StateEvent struct {
	Previous  ConnectionState
	Current   ConnectionState
	Timestamp time.Time

	// Error and ErrorMessage carry failure details for transitions into
	// StateFailed. Error is ErrorNone for all other transitions.
	Error        ConnectionError
	ErrorMessage string
}
