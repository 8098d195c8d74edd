// Package effects implements the lighting effect state machine. A single
// Scheduler owns the whole effect state; it is driven by one Tick call per
// control loop iteration and never blocks.
package effects

import (
	"log/slog"
	"time"

	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/internal/strip"
)

// Config is the scheduler's slice of the device configuration. An interval
// of 0 means the effect retriggers continuously instead of being gated on
// the wall-clock minute.
type Config struct {
	NumPixels     int
	ChaseSpeed    time.Duration
	ChaseInterval int
	FlashInterval int
	NumChasers    int
	FlashHold     time.Duration
	FadeDuration  time.Duration

	Brightness      uint8
	FlashBrightness uint8

	Background led.RGBColor
	Flash      led.RGBColor
}

// Scheduler decides which effects are active on every tick. Chase runs
// independently of flash/fade; flash and fade exclude each other and share
// one sub-state. All state is owned by the control loop goroutine.
type Scheduler struct {
	cfg    Config
	strip  strip.Strip
	logger *slog.Logger

	chase     *chaseState
	flashFade *flashFadeState

	// Minute guards: second == 0 may be observed on several ticks within
	// the same wall-clock second, so each periodic effect fires at most
	// once per triggering minute.
	lastChaseMinute int
	lastFlashMinute int
}

type chaseState struct {
	pos      []int
	lastStep time.Time
}

type flashFadeState struct {
	fading    bool
	flashedAt time.Time
	fadedAt   time.Time
}

// New creates a scheduler drawing on the given strip. NumChasers is clamped
// into [1, len of pos] bounds before use.
func New(cfg Config, st strip.Strip, logger *slog.Logger) *Scheduler {
	if cfg.NumChasers < 1 {
		cfg.NumChasers = 1
	}
	return &Scheduler{
		cfg:             cfg,
		strip:           st,
		logger:          logger,
		lastChaseMinute: -1,
		lastFlashMinute: -1,
	}
}

// Chasing reports whether a chase is in flight.
func (s *Scheduler) Chasing() bool { return s.chase != nil }

// Flashing reports whether a flash is being held (not yet fading).
func (s *Scheduler) Flashing() bool { return s.flashFade != nil && !s.flashFade.fading }

// Fading reports whether a fade back to the background is in flight.
func (s *Scheduler) Fading() bool { return s.flashFade != nil && s.flashFade.fading }

// Reset drops all in-flight effects and minute guards. The connectivity
// monitor calls this on reconnect so no stale activity double-fires.
func (s *Scheduler) Reset() {
	s.chase = nil
	s.flashFade = nil
	s.lastChaseMinute = -1
	s.lastFlashMinute = -1
}

// Repaint paints the whole ring with the background color at normal
// brightness and flushes.
func (s *Scheduler) Repaint() {
	s.strip.SetBrightness(s.cfg.Brightness)
	s.strip.Fill(s.cfg.Background)
	s.show()
}

// Tick advances the state machine. now must come from a monotonic clock;
// minute and second are the current wall-clock reading, or -1 while the
// clock is not yet synced (minute-gated triggers then never fire).
func (s *Scheduler) Tick(now time.Time, minute, second int) {
	s.tickChase(now, minute, second)
	s.tickFlashFade(now, minute, second)
}

func (s *Scheduler) tickChase(now time.Time, minute, second int) {
	if s.chase == nil {
		if !s.shouldTrigger(s.cfg.ChaseInterval, minute, second, s.lastChaseMinute) {
			return
		}
		s.startChase(now, minute)
	}

	c := s.chase
	if now.Sub(c.lastStep) < s.cfg.ChaseSpeed {
		return
	}
	// Advance by exactly one step interval rather than snapping to now, so
	// loop jitter never accumulates into drift.
	c.lastStep = c.lastStep.Add(s.cfg.ChaseSpeed)

	n := s.cfg.NumPixels
	for i := range c.pos {
		s.strip.SetPixel((c.pos[i]+n-1)%n, s.cfg.Background)
		s.strip.SetPixel(c.pos[i], s.cfg.Flash)
		c.pos[i] = (c.pos[i] + 1) % n
	}
	s.show()

	// Chaser 0 back at its seed position means one full rotation.
	if c.pos[0] == 0 && s.cfg.ChaseInterval != 0 {
		s.chase = nil
		s.strip.Fill(s.cfg.Background)
		s.show()
		s.logger.Debug("chase finished")
	}
}

func (s *Scheduler) startChase(now time.Time, minute int) {
	numChasers := s.cfg.NumChasers
	if numChasers > s.cfg.NumPixels {
		numChasers = s.cfg.NumPixels
	}

	pos := make([]int, numChasers)
	for i := range pos {
		pos[i] = i * s.cfg.NumPixels / numChasers
	}

	s.chase = &chaseState{pos: pos, lastStep: now}
	s.lastChaseMinute = minute
	s.logger.Debug("chase started", "minute", minute, "chasers", numChasers)
}

func (s *Scheduler) tickFlashFade(now time.Time, minute, second int) {
	if s.flashFade == nil {
		if !s.shouldTrigger(s.cfg.FlashInterval, minute, second, s.lastFlashMinute) {
			return
		}
		s.flashFade = &flashFadeState{flashedAt: now}
		s.lastFlashMinute = minute
		s.strip.SetBrightness(s.cfg.FlashBrightness)
		s.strip.Fill(s.cfg.Flash)
		s.show()
		s.logger.Debug("flash started", "minute", minute)
		return
	}

	f := s.flashFade
	if !f.fading {
		if now.Sub(f.flashedAt) < s.cfg.FlashHold {
			return
		}
		f.fading = true
		f.fadedAt = now
	}

	frac := 1.0
	if s.cfg.FadeDuration > 0 {
		frac = float64(now.Sub(f.fadedAt)) / float64(s.cfg.FadeDuration)
		if frac > 1 {
			frac = 1
		}
	}

	s.strip.SetBrightness(s.cfg.Brightness)
	s.strip.Fill(s.cfg.Flash.Lerp(s.cfg.Background, frac))
	s.show()

	if frac >= 1 {
		s.flashFade = nil
		if s.chase == nil {
			s.strip.Fill(s.cfg.Background)
			s.show()
		}
		s.logger.Debug("fade finished")
	}
}

// shouldTrigger decides whether a periodic effect fires on this tick.
// interval == 0 means always; otherwise the wall-clock minute must divide
// evenly, the second hand must be at 0, and the minute must not have fired
// already. A missed second-0 tick silently skips that minute.
func (s *Scheduler) shouldTrigger(interval, minute, second, lastMinute int) bool {
	if interval == 0 {
		return true
	}
	if minute < 0 || second != 0 {
		return false
	}
	return minute%interval == 0 && minute != lastMinute
}

func (s *Scheduler) show() {
	if err := s.strip.Show(); err != nil {
		s.logger.Warn("failed to flush strip", "error", err)
	}
}
