package wifi

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	associated bool
	reads      int
	joins      []Credentials
	aps        []string
}

func (b *fakeBackend) Associated() bool {
	b.reads++
	return b.associated
}

func (b *fakeBackend) Join(creds Credentials) {
	b.joins = append(b.joins, creds)
}

func (b *fakeBackend) StartAccessPoint(ssid string) {
	b.aps = append(b.aps, ssid)
}

func at(d time.Duration) time.Time {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(d)
}

func TestMonitorPollGating(t *testing.T) {
	backend := &fakeBackend{associated: true}
	m := NewMonitor(backend, Credentials{SSID: "net"}, Events{}, slog.Default())

	m.Tick(at(0))
	m.Tick(at(100 * time.Millisecond))
	m.Tick(at(900 * time.Millisecond))
	assert.Equal(t, 1, backend.reads, "polls within the check interval are skipped")

	m.Tick(at(time.Second))
	assert.Equal(t, 2, backend.reads)
}

func TestMonitorEdgeEvents(t *testing.T) {
	backend := &fakeBackend{associated: true}
	var lost, restored int
	m := NewMonitor(backend, Credentials{SSID: "net", Pass: "secret"}, Events{
		Lost:     func() { lost++ },
		Restored: func() { restored++ },
	}, slog.Default())

	// First poll sees the radio up: one restored edge.
	m.Tick(at(0))
	assert.True(t, m.Connected())
	assert.Equal(t, 1, restored)
	assert.Equal(t, 0, lost)

	// Radio drops: one lost edge, a rejoin attempt, indication latched.
	backend.associated = false
	m.Tick(at(time.Second))
	assert.False(t, m.Connected())
	assert.True(t, m.LostIndication())
	assert.Equal(t, 1, lost)
	assert.Len(t, backend.joins, 1)
	assert.Equal(t, "net", backend.joins[0].SSID)

	// Still down: no second edge, but another rejoin attempt per poll.
	m.Tick(at(2 * time.Second))
	m.Tick(at(3 * time.Second))
	assert.Equal(t, 1, lost)
	assert.Len(t, backend.joins, 3)

	// Radio back: one restored edge, indication cleared.
	backend.associated = true
	m.Tick(at(4 * time.Second))
	assert.True(t, m.Connected())
	assert.False(t, m.LostIndication())
	assert.Equal(t, 2, restored)
	assert.Equal(t, 1, lost)
}
