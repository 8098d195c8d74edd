package effects

import (
	"log/slog"
	"time"

	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/internal/strip"
)

// DefaultBlinkPeriod is the toggle period of alert blinking.
const DefaultBlinkPeriod = 500 * time.Millisecond

// Blinker alternates the whole ring between off and a solid alert color.
// It is used for the Wi-Fi-lost indication and for access point mode, and
// owns the whole strip while it runs; no other effect renders concurrently.
type Blinker struct {
	strip  strip.Strip
	logger *slog.Logger

	color      led.RGBColor
	brightness uint8
	period     time.Duration

	on     bool
	toggle time.Time
}

// NewBlinker creates a blinker with the given alert color and brightness.
func NewBlinker(st strip.Strip, color led.RGBColor, brightness uint8, period time.Duration, logger *slog.Logger) *Blinker {
	return &Blinker{
		strip:      st,
		logger:     logger,
		color:      color,
		brightness: brightness,
		period:     period,
	}
}

// Rearm resets the blink phase so the next Tick toggles immediately. The
// connectivity monitor calls this when the link is lost, which makes the
// alert visible within one tick.
func (b *Blinker) Rearm() {
	b.on = false
	b.toggle = time.Time{}
}

// Tick toggles the ring once the blink period elapsed and returns
// immediately otherwise.
func (b *Blinker) Tick(now time.Time) {
	if !b.toggle.IsZero() && now.Sub(b.toggle) < b.period {
		return
	}
	b.toggle = now
	b.on = !b.on

	if b.on {
		b.strip.SetBrightness(b.brightness)
		b.strip.Fill(b.color)
	} else {
		b.strip.Clear()
	}
	if err := b.strip.Show(); err != nil {
		b.logger.Warn("failed to flush strip", "error", err)
	}
}
