package strip

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ringlight/internal/led"
	"libdb.so/ringlight/ringserial"
)

func TestSerialShowEmitsBrightnessThenFrame(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerial(&buf, 2)

	s.SetBrightness(40)
	s.SetPixel(0, led.RGB(1, 2, 3))
	s.SetPixel(1, led.RGB(4, 5, 6))
	require.NoError(t, s.Show())

	ctx := ringserial.ReadContext{NumLEDs: 2}

	p, err := ringserial.ReadIncomingPacket(&buf, ctx)
	require.NoError(t, err)
	assert.Equal(t, ringserial.BrightnessPacket{Level: 40}, p)

	p, err = ringserial.ReadIncomingPacket(&buf, ctx)
	require.NoError(t, err)
	assert.Equal(t, ringserial.SetPacket{Pix: []uint8{1, 2, 3, 4, 5, 6}}, p)

	// An unchanged brightness is not resent.
	require.NoError(t, s.Show())
	p, err = ringserial.ReadIncomingPacket(&buf, ctx)
	require.NoError(t, err)
	assert.IsType(t, ringserial.SetPacket{}, p)
	assert.Zero(t, buf.Len())
}

func TestSerialClearAndBounds(t *testing.T) {
	var buf bytes.Buffer
	s := NewSerial(&buf, 2)

	s.SetPixel(-1, led.RGB(9, 9, 9)) // ignored
	s.SetPixel(5, led.RGB(9, 9, 9))  // ignored
	s.Fill(led.RGB(7, 7, 7))
	s.Clear()
	require.NoError(t, s.Show())

	_, err := ringserial.ReadIncomingPacket(&buf, ringserial.ReadContext{NumLEDs: 2})
	require.NoError(t, err) // brightness, first flush
	p, err := ringserial.ReadIncomingPacket(&buf, ringserial.ReadContext{NumLEDs: 2})
	require.NoError(t, err)
	assert.Equal(t, ringserial.SetPacket{Pix: make([]uint8, 6)}, p)
}
