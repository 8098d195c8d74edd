// Package led defines the in-memory representation of the LED ring.
package led

import (
	"io"
	"math"
	"unsafe"
)

// RGBColor is a 24-bit RGB color in R, G, B channel order.
type RGBColor [3]uint8

// RGB returns the color with the given channel values.
func RGB(r, g, b uint8) RGBColor {
	return RGBColor{r, g, b}
}

// Lerp linearly interpolates each channel from c towards to.
// frac is clamped into [0, 1]; 0 yields exactly c and 1 yields exactly to.
func (c RGBColor) Lerp(to RGBColor, frac float64) RGBColor {
	if frac <= 0 {
		return c
	}
	if frac >= 1 {
		return to
	}
	var out RGBColor
	for i := range c {
		out[i] = uint8(math.Round(float64(c[i]) + frac*(float64(to[i])-float64(c[i]))))
	}
	return out
}

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// WriteTo implements io.WriterTo. It writes the LED strip to the given writer
// as a series of RGBColor values.
func (l LEDs) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for _, c := range l {
		n, err := w.Write(c[:])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel.
func (l LEDs) AsPixels() []uint8 {
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// Set sets the color of the LED at the given index.
func (l LEDs) Set(i int, c RGBColor) {
	l[i] = c
}

// Fill sets every LED to the given color.
func (l LEDs) Fill(c RGBColor) {
	for i := range l {
		l[i] = c
	}
}
