package ringserial

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, JoinPacket{
		SSID: "homenet",
		Pass: "secret",
	}))

	p, err := ReadIncomingPacket(&buf, ReadContext{})
	require.NoError(t, err)
	assert.Equal(t, JoinPacket{SSID: "homenet", Pass: "secret"}, p)
}

func TestSetPacketRoundTrip(t *testing.T) {
	pix := []uint8{1, 2, 3, 4, 5, 6}

	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, SetPacket{Pix: pix}))

	p, err := ReadIncomingPacket(&buf, ReadContext{NumLEDs: 2})
	require.NoError(t, err)
	assert.Equal(t, SetPacket{Pix: pix}, p)
}

func TestStatusPacketRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutgoingPacket(&buf, StatusPacket{
		Associated: true,
		Mode:       ModeAccessPoint,
	}))

	p, err := ReadOutgoingPacket(&buf, ReadContext{})
	require.NoError(t, err)
	assert.Equal(t, StatusPacket{Associated: true, Mode: ModeAccessPoint}, p)
}

func TestCorruptedChecksumRejected(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteIncomingPacket(&buf, JoinPacket{SSID: "homenet"}))

	raw := buf.Bytes()
	raw[len(raw)-1] ^= 0xff

	_, err := ReadIncomingPacket(bytes.NewReader(raw), ReadContext{})
	assert.Error(t, err)
}
