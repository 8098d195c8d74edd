// Package wallclock provides an NTP-synced wall clock. The clock reports
// invalid until the first sync answer lands; the scheduler tolerates that
// by treating minute-gated triggers as not yet satisfiable.
package wallclock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/beevik/ntp"
)

// Clock is an offset-corrected wall clock. Minute/second reads are cheap
// and never touch the network; syncing happens in the background.
type Clock struct {
	logger *slog.Logger
	server string

	// now and query are swappable for tests.
	now   func() time.Time
	query func(server string) (time.Duration, error)

	mu      sync.Mutex
	offset  time.Duration
	valid   bool
	syncing bool
}

// New creates a clock syncing against the given NTP server.
func New(server string, logger *slog.Logger) *Clock {
	return &Clock{
		logger: logger,
		server: server,
		now:    time.Now,
		query:  queryNTP,
	}
}

func queryNTP(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// RequestSync kicks off a background sync. It returns immediately; a sync
// already in flight is not duplicated.
func (c *Clock) RequestSync() {
	c.mu.Lock()
	if c.syncing {
		c.mu.Unlock()
		return
	}
	c.syncing = true
	c.mu.Unlock()

	go c.sync()
}

func (c *Clock) sync() {
	offset, err := c.query(c.server)

	c.mu.Lock()
	c.syncing = false
	if err == nil {
		c.offset = offset
		c.valid = true
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("time sync failed", "server", c.server, "error", err)
		return
	}
	c.logger.Info("time synced", "server", c.server, "offset", offset)
}

// Synced reports whether at least one sync has completed.
func (c *Clock) Synced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// MinuteSecond returns the current wall-clock minute and second. ok is
// false until the first sync completes; the reading is then garbage and
// must not gate any effect.
func (c *Clock) MinuteSecond() (minute, second int, ok bool) {
	c.mu.Lock()
	offset, valid := c.offset, c.valid
	c.mu.Unlock()

	if !valid {
		return 0, 0, false
	}
	t := c.now().Add(offset)
	return t.Minute(), t.Second(), true
}
