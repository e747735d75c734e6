package connkit

import (
	"time"

	"github.com/benbjohnson/clock"
)

// MonitorConfig controls the health monitor's polling behavior.
type MonitorConfig struct {
	// Interval between health-check ticks.
	Interval time.Duration

	// ProbeTimeout bounds each probe invocation within a tick.
	ProbeTimeout time.Duration

	// Clock drives the tick timer. Tests substitute a mock clock.
	Clock clock.Clock
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Interval:     10 * time.Second,
		ProbeTimeout: 5 * time.Second,
		Clock:        clock.New(),
	}
}

// Validate corrects out-of-range values in place.
func (c *MonitorConfig) Validate() {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
}

// RetryPolicy controls WithRetryAndFallback: how many times the primary
// operation is attempted and how long to back off between attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of primary attempts before the
	// fallback runs.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// Multiplier grows the delay between consecutive attempts.
	Multiplier float64

	// Clock drives backoff sleeps. Tests substitute a mock clock.
	Clock clock.Clock

	// Logger receives per-attempt diagnostics. Defaults to a no-op logger.
	Logger Logger
}

// DefaultRetryPolicy returns sensible defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Clock:        clock.New(),
		Logger:       noopLogger{},
	}
}

// Validate corrects out-of-range values in place.
func (p *RetryPolicy) Validate() {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 500 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	if p.Multiplier <= 1 {
		p.Multiplier = 2.0
	}
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Logger == nil {
		p.Logger = noopLogger{}
	}
}
