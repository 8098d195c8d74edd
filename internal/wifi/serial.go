package wifi

import (
	"io"
	"log/slog"
	"sync"

	"libdb.so/ringlight/ringserial"
)

// SerialBackend is a Backend bridged over the co-processor serial protocol.
// Association state is pushed by the co-processor as status packets; the
// daemon's read loop feeds them in through UpdateStatus, so reads here never
// touch the wire.
type SerialBackend struct {
	w      io.Writer
	logger *slog.Logger

	mu         sync.Mutex
	associated bool
	mode       ringserial.Mode
}

var _ Backend = (*SerialBackend)(nil)

// NewSerialBackend creates a backend writing radio commands to w.
func NewSerialBackend(w io.Writer, logger *slog.Logger) *SerialBackend {
	return &SerialBackend{w: w, logger: logger}
}

// UpdateStatus records a status packet pushed by the co-processor.
func (b *SerialBackend) UpdateStatus(p ringserial.StatusPacket) {
	b.mu.Lock()
	b.associated = p.Associated
	b.mode = p.Mode
	b.mu.Unlock()
}

// Associated reports the last pushed association state.
func (b *SerialBackend) Associated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.associated
}

// Mode reports the last pushed radio mode.
func (b *SerialBackend) Mode() ringserial.Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Join sends a join command. Errors are logged and dropped; the command's
// outcome is only observable through later status packets.
func (b *SerialBackend) Join(creds Credentials) {
	err := ringserial.WriteIncomingPacket(b.w, ringserial.JoinPacket{
		SSID: creds.SSID,
		Pass: creds.Pass,
	})
	if err != nil {
		b.logger.Warn("failed to send join command", "error", err)
	}
}

// StartAccessPoint sends an access point command.
func (b *SerialBackend) StartAccessPoint(ssid string) {
	err := ringserial.WriteIncomingPacket(b.w, ringserial.AccessPointPacket{
		SSID: ssid,
	})
	if err != nil {
		b.logger.Warn("failed to send access point command", "error", err)
	}
}
