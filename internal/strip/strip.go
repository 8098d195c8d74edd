// Package strip abstracts the addressable LED ring that effects draw on.
package strip

import "libdb.so/ringlight/internal/led"

// Strip is a buffered drawing surface. Mutations only become visible once
// Show flushes the buffer to the hardware. Show never overlaps a previous
// flush; callers issue at most one flush per effect per tick.
type Strip interface {
	// Len returns the number of pixels on the strip.
	Len() int
	// SetBrightness sets the global output brightness.
	SetBrightness(level uint8)
	// SetPixel sets the color of a single pixel.
	SetPixel(i int, c led.RGBColor)
	// Fill sets every pixel to the given color.
	Fill(c led.RGBColor)
	// Clear sets every pixel to black.
	Clear()
	// Show flushes the buffer to the hardware.
	Show() error
}
