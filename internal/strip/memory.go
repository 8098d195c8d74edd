package strip

import "libdb.so/ringlight/internal/led"

// Memory is an in-memory Strip used by tests and the simulator. It records
// the frame and brightness of every Show.
type Memory struct {
	frame      led.LEDs
	brightness uint8

	shown           led.LEDs
	shownBrightness uint8
	shows           int
}

var _ Strip = (*Memory)(nil)

// NewMemory creates an in-memory strip with the given ring size.
func NewMemory(numPixels int) *Memory {
	return &Memory{
		frame: led.NewLEDs(numPixels),
		shown: led.NewLEDs(numPixels),
	}
}

func (m *Memory) Len() int { return len(m.frame) }

func (m *Memory) SetBrightness(level uint8) { m.brightness = level }

func (m *Memory) SetPixel(i int, c led.RGBColor) {
	if i < 0 || i >= len(m.frame) {
		return
	}
	m.frame.Set(i, c)
}

func (m *Memory) Fill(c led.RGBColor) { m.frame.Fill(c) }

func (m *Memory) Clear() { m.frame.Fill(led.RGBColor{}) }

func (m *Memory) Show() error {
	copy(m.shown, m.frame)
	m.shownBrightness = m.brightness
	m.shows++
	return nil
}

// Shown returns the frame of the most recent Show.
func (m *Memory) Shown() led.LEDs { return m.shown }

// ShownBrightness returns the brightness of the most recent Show.
func (m *Memory) ShownBrightness() uint8 { return m.shownBrightness }

// Shows returns how many times Show has been called.
func (m *Memory) Shows() int { return m.shows }
