// Package wifi tracks the station association state of the co-processor
// radio and raises edge-triggered lost/restored events.
package wifi

import (
	"log/slog"
	"time"
)

// Credentials is a stored network credential pair.
type Credentials struct {
	SSID string
	Pass string
}

// Backend is the radio control surface. Implementations must never block:
// Associated returns a cached flag and Join is fire-and-forget, so a join's
// outcome is only observable on a later Associated read.
type Backend interface {
	// Associated reports whether the radio is associated with a network.
	Associated() bool
	// Join asks the radio to associate using the given credentials.
	Join(creds Credentials)
	// StartAccessPoint asks the radio to host its own access point.
	StartAccessPoint(ssid string)
}

// Events are the monitor's edge-triggered callbacks. Either may be nil.
// They run on the control loop goroutine, inside Tick.
type Events struct {
	// Lost fires when association drops.
	Lost func()
	// Restored fires when association comes back.
	Restored func()
}

// DefaultCheckInterval is how often the monitor polls the backend.
const DefaultCheckInterval = time.Second

// Monitor polls the backend at a fixed interval and tracks association as
// an edge-triggered state. While disconnected it re-issues a join attempt
// on every poll.
type Monitor struct {
	backend Backend
	creds   Credentials
	events  Events
	logger  *slog.Logger

	checkInterval time.Duration
	lastCheck     time.Time

	connected bool
	lost      bool
}

// NewMonitor creates a monitor polling at DefaultCheckInterval.
func NewMonitor(backend Backend, creds Credentials, events Events, logger *slog.Logger) *Monitor {
	return &Monitor{
		backend:       backend,
		creds:         creds,
		events:        events,
		logger:        logger,
		checkInterval: DefaultCheckInterval,
	}
}

// Connected reports the cached association state.
func (m *Monitor) Connected() bool { return m.connected }

// LostIndication reports whether the lost alert is active.
func (m *Monitor) LostIndication() bool { return m.lost }

// Tick polls the backend if the check interval elapsed and otherwise does
// nothing. State transitions fire the corresponding event exactly once.
func (m *Monitor) Tick(now time.Time) {
	if !m.lastCheck.IsZero() && now.Sub(m.lastCheck) < m.checkInterval {
		return
	}
	m.lastCheck = now

	associated := m.backend.Associated()
	switch {
	case associated && !m.connected:
		m.connected = true
		m.lost = false
		m.logger.Info("wifi restored", "ssid", m.creds.SSID)
		if m.events.Restored != nil {
			m.events.Restored()
		}

	case !associated && m.connected:
		m.connected = false
		m.lost = true
		m.logger.Warn("wifi lost", "ssid", m.creds.SSID)
		if m.events.Lost != nil {
			m.events.Lost()
		}
		m.backend.Join(m.creds)

	case !associated:
		// Still down. Keep trying; failures only show up as the flag
		// staying false on the next poll.
		m.backend.Join(m.creds)
	}
}
