package strip

import (
	"io"

	"github.com/pkg/errors"
	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/ringserial"
)

// Serial is a Strip that drives the ring over the co-processor serial
// protocol. Writes go through the daemon's serial port; the co-processor
// latches the frame when it receives a set packet.
type Serial struct {
	w     io.Writer
	frame led.LEDs

	brightness uint8
	// sent is the last brightness flushed to the co-processor, or -1 if
	// none has been flushed yet.
	sent int
}

var _ Strip = (*Serial)(nil)

// NewSerial creates a serial-backed strip with the given ring size.
func NewSerial(w io.Writer, numPixels int) *Serial {
	return &Serial{
		w:     w,
		frame: led.NewLEDs(numPixels),
		sent:  -1,
	}
}

// Len returns the number of pixels on the ring.
func (s *Serial) Len() int {
	return len(s.frame)
}

// SetBrightness sets the global output brightness. The new level reaches
// the hardware on the next Show.
func (s *Serial) SetBrightness(level uint8) {
	s.brightness = level
}

// SetPixel sets the color of a single pixel. Out-of-range indices are
// ignored.
func (s *Serial) SetPixel(i int, c led.RGBColor) {
	if i < 0 || i >= len(s.frame) {
		return
	}
	s.frame.Set(i, c)
}

// Fill sets every pixel to the given color.
func (s *Serial) Fill(c led.RGBColor) {
	s.frame.Fill(c)
}

// Clear sets every pixel to black.
func (s *Serial) Clear() {
	s.frame.Fill(led.RGBColor{})
}

// Show flushes the frame to the co-processor. The brightness packet is
// only sent when the level changed since the last flush.
func (s *Serial) Show() error {
	if int(s.brightness) != s.sent {
		err := ringserial.WriteIncomingPacket(s.w, ringserial.BrightnessPacket{
			Level: s.brightness,
		})
		if err != nil {
			return errors.Wrap(err, "failed to write brightness")
		}
		s.sent = int(s.brightness)
	}

	err := ringserial.WriteIncomingPacket(s.w, ringserial.SetPacket{
		Pix: s.frame.AsPixels(),
	})
	return errors.Wrap(err, "failed to write frame")
}
