package connkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateManagerDefaults(t *testing.T) {
	m := NewStateManager()

	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, 0, m.ReconnectAttempts())
	assert.Equal(t, QualityGood, m.Quality())
	assert.Equal(t, "", m.ConnectionID())
	assert.Equal(t, time.Duration(0), m.Latency())
	assert.True(t, m.LastConnectedTime().IsZero())
	assert.Equal(t, ErrorNone, m.LastError())
	assert.Equal(t, "", m.LastErrorMessage())
}

func TestSetStateSameStateIsNoop(t *testing.T) {
	m := NewStateManager()
	calls := 0
	m.OnStateChange(func(StateEvent) { calls++ })

	m.SetState(StateDisconnected)

	assert.Equal(t, 0, calls)
	assert.Equal(t, StateDisconnected, m.State())
}

func TestFanOutAndEventShape(t *testing.T) {
	m := NewStateManager()
	var first, second []StateEvent
	m.OnStateChange(func(ev StateEvent) { first = append(first, ev) })
	m.OnStateChange(func(ev StateEvent) { second = append(second, ev) })

	before := time.Now()
	m.SetState(StateConnecting)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0], second[0])
	assert.Equal(t, StateDisconnected, first[0].Previous)
	assert.Equal(t, StateConnecting, first[0].Current)
	assert.False(t, first[0].Timestamp.Before(before))
	assert.Equal(t, ErrorNone, first[0].Error)
}

func TestDuplicateRegistrationFiresTwice(t *testing.T) {
	m := NewStateManager()
	calls := 0
	fn := func(StateEvent) { calls++ }
	m.OnStateChange(fn)
	m.OnStateChange(fn)

	m.SetState(StateConnecting)

	assert.Equal(t, 2, calls)
}

func TestUnsubscribe(t *testing.T) {
	m := NewStateManager()
	var removed, kept int
	unsub := m.OnStateChange(func(StateEvent) { removed++ })
	m.OnStateChange(func(StateEvent) { kept++ })

	m.SetState(StateConnecting)
	unsub()
	m.SetState(StateConnected)
	unsub() // second call is a no-op

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, kept)
}

func TestReconnectCountingAndReset(t *testing.T) {
	m := NewStateManager()

	m.SetState(StateReconnecting)
	m.SetState(StateFailed)
	m.SetState(StateReconnecting)
	assert.Equal(t, 2, m.ReconnectAttempts())

	m.SetState(StateConnected)
	assert.Equal(t, 0, m.ReconnectAttempts())
	assert.False(t, m.LastConnectedTime().IsZero())
}

func TestFailCapturesAndConnectedClears(t *testing.T) {
	m := NewStateManager()

	m.Fail(ErrorServerUnreachable, "Server is down")
	assert.Equal(t, StateFailed, m.State())
	assert.Equal(t, ErrorServerUnreachable, m.LastError())
	assert.Equal(t, "Server is down", m.LastErrorMessage())

	m.SetState(StateConnected)
	assert.Equal(t, ErrorNone, m.LastError())
	assert.Equal(t, "", m.LastErrorMessage())
}

func TestFailedWithoutInfoRetainsPriorError(t *testing.T) {
	m := NewStateManager()

	m.Fail(ErrorTimeout, "slow backend")
	m.SetState(StateReconnecting)
	m.SetState(StateFailed)

	assert.Equal(t, ErrorTimeout, m.LastError())
	assert.Equal(t, "slow backend", m.LastErrorMessage())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		state      ConnectionState
		connected  bool
		connecting bool
		failed     bool
		offline    bool
	}{
		{StateDisconnected, false, false, false, false},
		{StateConnecting, false, true, false, false},
		{StateConnected, true, false, false, false},
		{StateReconnecting, false, true, false, false},
		{StateFailed, false, false, true, false},
		{StateOffline, false, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			m := NewStateManager()
			m.SetState(tt.state)
			assert.Equal(t, tt.connected, m.IsConnected())
			assert.Equal(t, tt.connecting, m.IsConnecting())
			assert.Equal(t, tt.failed, m.HasFailed())
			assert.Equal(t, tt.offline, m.IsOffline())
		})
	}
}

func TestTransitionSequenceAudit(t *testing.T) {
	m := NewStateManager()
	var events []StateEvent
	m.OnStateChange(func(ev StateEvent) { events = append(events, ev) })

	m.SetState(StateConnecting)
	m.SetState(StateConnected)
	m.SetConnectionID("conn-1")
	m.SetState(StateReconnecting)
	m.Fail(ErrorServerUnreachable, "Server unavailable")

	require.Len(t, events, 4)
	want := []ConnectionState{StateConnecting, StateConnected, StateReconnecting, StateFailed}
	prev := StateDisconnected
	for i, ev := range events {
		assert.Equal(t, prev, ev.Previous, "event %d", i)
		assert.Equal(t, want[i], ev.Current, "event %d", i)
		prev = ev.Current
	}
	last := events[len(events)-1]
	assert.Equal(t, ErrorServerUnreachable, last.Error)
	assert.Equal(t, "Server unavailable", last.ErrorMessage)
	assert.Equal(t, "conn-1", m.ConnectionID())
}

func TestResetRestoresDefaults(t *testing.T) {
	m := NewStateManager()
	calls := 0
	m.OnStateChange(func(StateEvent) { calls++ })

	m.SetState(StateConnected)
	m.SetConnectionID("conn-9")
	m.SetLatency(42 * time.Millisecond)
	m.SetQuality(QualityExcellent)
	m.Fail(ErrorNetworkLost, "link dropped")
	callsBefore := calls

	m.Reset()

	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, 0, m.ReconnectAttempts())
	assert.Equal(t, QualityGood, m.Quality())
	assert.Equal(t, "", m.ConnectionID())
	assert.Equal(t, time.Duration(0), m.Latency())
	assert.True(t, m.LastConnectedTime().IsZero())
	assert.Equal(t, ErrorNone, m.LastError())
	assert.Equal(t, "", m.LastErrorMessage())
	assert.Equal(t, callsBefore, calls, "reset must not emit an event")

	// Listeners survive a reset.
	m.SetState(StateConnecting)
	assert.Equal(t, callsBefore+1, calls)
}

func TestListenerPanicIsolation(t *testing.T) {
	m := NewStateManager()
	var after int
	m.OnStateChange(func(StateEvent) { panic("bad subscriber") })
	m.OnStateChange(func(StateEvent) { after++ })

	require.NotPanics(t, func() { m.SetState(StateConnecting) })
	assert.Equal(t, 1, after)
}

func TestListenerMayReenterManager(t *testing.T) {
	m := NewStateManager()
	var states []ConnectionState
	m.OnStateChange(func(ev StateEvent) {
		states = append(states, ev.Current)
		if ev.Current == StateConnecting {
			m.SetState(StateConnected)
		}
	})

	m.SetState(StateConnecting)

	assert.Equal(t, []ConnectionState{StateConnecting, StateConnected}, states)
	assert.True(t, m.IsConnected())
}

func TestMetadataSettersDoNotNotify(t *testing.T) {
	m := NewStateManager()
	calls := 0
	m.OnStateChange(func(StateEvent) { calls++ })

	m.SetQuality(QualityPoor)
	m.SetConnectionID(NewConnectionID())
	m.SetLatency(10 * time.Millisecond)

	assert.Equal(t, 0, calls)
	assert.Equal(t, QualityPoor, m.Quality())
	assert.NotEmpty(t, m.ConnectionID())
}
