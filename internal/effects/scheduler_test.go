package effects

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/internal/strip"
)

var (
	background = led.RGB(100, 50, 0)
	flashColor = led.RGB(200, 100, 50)
)

func testConfig() Config {
	return Config{
		NumPixels:       8,
		ChaseSpeed:      100 * time.Millisecond,
		ChaseInterval:   15,
		FlashInterval:   15,
		NumChasers:      1,
		FlashHold:       time.Second,
		FadeDuration:    2 * time.Second,
		Brightness:      40,
		FlashBrightness: 255,
		Background:      background,
		Flash:           flashColor,
	}
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *strip.Memory) {
	t.Helper()
	mem := strip.NewMemory(cfg.NumPixels)
	return New(cfg, mem, slog.Default()), mem
}

// at is a tick timestamp offset from an arbitrary base.
func at(d time.Duration) time.Time {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(d)
}

func TestChaseTriggerGating(t *testing.T) {
	sched, _ := newTestScheduler(t, testConfig())

	sched.Tick(at(0), 14, 0)
	assert.False(t, sched.Chasing(), "minute 14 must not trigger a 15-minute chase")

	sched.Tick(at(10*time.Millisecond), 15, 1)
	assert.False(t, sched.Chasing(), "second != 0 must not trigger")

	sched.Tick(at(20*time.Millisecond), 15, 0)
	assert.True(t, sched.Chasing(), "minute 15 second 0 must trigger")
}

func TestChaseRotationCompletes(t *testing.T) {
	cfg := testConfig()
	cfg.FlashInterval = 60 // keep the flash out of the frame
	sched, mem := newTestScheduler(t, cfg)

	now := at(0)
	sched.Tick(now, 15, 0)
	require.True(t, sched.Chasing())

	// One step per chase speed interval; a full rotation is NumPixels steps.
	for i := 0; i < cfg.NumPixels; i++ {
		now = now.Add(cfg.ChaseSpeed)
		sched.Tick(now, 15, 30)
	}
	assert.False(t, sched.Chasing(), "chase must exit after one rotation")

	for i := 0; i < cfg.NumPixels; i++ {
		assert.Equal(t, background, mem.Shown()[i], "ring must be repainted to background")
	}

	// The same minute must not re-fire.
	sched.Tick(now.Add(cfg.ChaseSpeed), 15, 0)
	assert.False(t, sched.Chasing())

	sched.Tick(now.Add(2*cfg.ChaseSpeed), 30, 0)
	assert.True(t, sched.Chasing(), "the next qualifying minute must fire")
}

func TestChaseContinuousNeverExits(t *testing.T) {
	cfg := testConfig()
	cfg.ChaseInterval = 0
	sched, _ := newTestScheduler(t, cfg)

	now := at(0)
	sched.Tick(now, -1, -1)
	require.True(t, sched.Chasing(), "interval 0 must start without wall clock")

	// Several full rotations.
	for i := 0; i < 5*cfg.NumPixels; i++ {
		now = now.Add(cfg.ChaseSpeed)
		sched.Tick(now, -1, -1)
		assert.True(t, sched.Chasing(), "continuous chase must never self-deactivate")
	}
}

func TestChaseStepAdvancesByExactlySpeed(t *testing.T) {
	cfg := testConfig()
	cfg.NumPixels = 100 // keep the rotation from completing
	cfg.FlashInterval = 60
	sched, mem := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	require.True(t, sched.Chasing())

	// Jittered ticks: late polls must not push the step cadence back.
	sched.Tick(at(150*time.Millisecond), 15, 30) // step 1, lastStep -> 100ms
	sched.Tick(at(190*time.Millisecond), 15, 30) // elapsed 90ms, no step
	sched.Tick(at(210*time.Millisecond), 15, 30) // step 2, lastStep -> 200ms
	sched.Tick(at(305*time.Millisecond), 15, 30) // step 3, lastStep -> 300ms

	assert.Equal(t, 3, mem.Shows(), "three step intervals elapsed despite jitter")
}

func TestChaseSeedsEquallySpacedPositions(t *testing.T) {
	cfg := testConfig()
	cfg.NumPixels = 12
	cfg.NumChasers = 4
	cfg.FlashInterval = 60
	sched, mem := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	sched.Tick(at(cfg.ChaseSpeed), 15, 30)

	for _, pos := range []int{0, 3, 6, 9} {
		assert.Equal(t, flashColor, mem.Shown()[pos], "chaser expected at position %d", pos)
	}
}

func TestFlashFadeScenario(t *testing.T) {
	cfg := testConfig()
	cfg.ChaseInterval = 60 // keep the chase out of the frame
	sched, mem := newTestScheduler(t, cfg)

	// Minute 15, second 0: full-brightness flash.
	sched.Tick(at(0), 15, 0)
	require.True(t, sched.Flashing())
	assert.Equal(t, uint8(255), mem.ShownBrightness())
	assert.Equal(t, flashColor, mem.Shown()[0])

	// Holding: no transition before the hold duration elapses.
	sched.Tick(at(500*time.Millisecond), 15, 0)
	assert.True(t, sched.Flashing())

	// Hold expired: fade begins at the flash color, normal brightness.
	sched.Tick(at(time.Second), 15, 1)
	require.True(t, sched.Fading())
	assert.Equal(t, uint8(40), mem.ShownBrightness())
	assert.Equal(t, flashColor, mem.Shown()[0])

	// Halfway through the 2000ms fade every channel is at the midpoint.
	sched.Tick(at(2*time.Second), 15, 2)
	assert.Equal(t, led.RGB(150, 75, 25), mem.Shown()[0])

	// Fade complete: background restored, sub-state dropped.
	sched.Tick(at(3*time.Second), 15, 3)
	assert.False(t, sched.Fading())
	assert.False(t, sched.Flashing())
	assert.Equal(t, background, mem.Shown()[0])
}

func TestFadeIsMonotonicPerChannel(t *testing.T) {
	cfg := testConfig()
	cfg.ChaseInterval = 60
	sched, mem := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	sched.Tick(at(time.Second), 15, 1) // fade begins

	prev := mem.Shown()[0]
	for d := 100 * time.Millisecond; d <= 2*time.Second; d += 100 * time.Millisecond {
		sched.Tick(at(time.Second+d), 15, 2)
		cur := mem.Shown()[0]
		for ch := range cur {
			assert.LessOrEqual(t, cur[ch], prev[ch],
				"channel %d must move towards the background, never away", ch)
		}
		prev = cur
	}
	assert.Equal(t, background, prev)
}

func TestFlashOncePerMinute(t *testing.T) {
	cfg := testConfig()
	cfg.ChaseInterval = 60
	cfg.FlashHold = 10 * time.Millisecond
	cfg.FadeDuration = 10 * time.Millisecond
	sched, mem := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	require.True(t, sched.Flashing())
	flashes := mem.Shows()

	// Run the whole flash+fade out within the same minute.
	sched.Tick(at(20*time.Millisecond), 15, 0)
	sched.Tick(at(50*time.Millisecond), 15, 0)
	require.False(t, sched.Fading())

	// Still minute 15: the guard must hold even though second == 0 again.
	sched.Tick(at(100*time.Millisecond), 15, 0)
	assert.False(t, sched.Flashing())
	assert.Greater(t, mem.Shows(), flashes) // fade frames happened
	assert.Equal(t, background, mem.Shown()[0])

	sched.Tick(at(200*time.Millisecond), 30, 0)
	assert.True(t, sched.Flashing(), "minute 30 must fire again")
}

func TestUnsyncedClockNeverTriggers(t *testing.T) {
	sched, mem := newTestScheduler(t, testConfig())

	now := at(0)
	for i := 0; i < 100; i++ {
		now = now.Add(10 * time.Millisecond)
		sched.Tick(now, -1, -1)
	}
	assert.False(t, sched.Chasing())
	assert.False(t, sched.Flashing())
	assert.Zero(t, mem.Shows(), "nothing may render while the clock is unsynced")
}

func TestChaseAndFlashRunConcurrently(t *testing.T) {
	cfg := testConfig()
	cfg.ChaseInterval = 0
	sched, _ := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	assert.True(t, sched.Chasing())
	assert.True(t, sched.Flashing(), "flash must coexist with an active chase")

	// Run the flash through its fade; the chase keeps going.
	sched.Tick(at(time.Second), 15, 1)
	require.True(t, sched.Fading())
	sched.Tick(at(3*time.Second), 15, 3)
	assert.False(t, sched.Fading())
	assert.True(t, sched.Chasing())
}

func TestResetDropsStateAndGuards(t *testing.T) {
	sched, _ := newTestScheduler(t, testConfig())

	sched.Tick(at(0), 15, 0)
	require.True(t, sched.Chasing())
	require.True(t, sched.Flashing())

	sched.Reset()
	assert.False(t, sched.Chasing())
	assert.False(t, sched.Flashing())
	assert.False(t, sched.Fading())

	// After a reset (reconnect) the same minute may fire afresh.
	sched.Tick(at(time.Second), 15, 0)
	assert.True(t, sched.Chasing())
	assert.True(t, sched.Flashing())
}

func TestNumChasersMinimumOne(t *testing.T) {
	cfg := testConfig()
	cfg.NumChasers = 0
	cfg.FlashInterval = 60
	sched, mem := newTestScheduler(t, cfg)

	sched.Tick(at(0), 15, 0)
	require.True(t, sched.Chasing())
	sched.Tick(at(cfg.ChaseSpeed), 15, 30)

	lit := 0
	for _, c := range mem.Shown() {
		if c == flashColor {
			lit++
		}
	}
	assert.Equal(t, 1, lit, "a zero chaser count still runs one chaser")
}

func TestRepaint(t *testing.T) {
	sched, mem := newTestScheduler(t, testConfig())

	sched.Repaint()
	assert.Equal(t, uint8(40), mem.ShownBrightness())
	for i := 0; i < 8; i++ {
		assert.Equal(t, background, mem.Shown()[i])
	}
}
