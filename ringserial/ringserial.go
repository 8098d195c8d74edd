// Package ringserial implements the serial protocol between the ringlight
// daemon and the LED ring co-processor.
package ringserial

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

// Endianness defines the endianness of the protocol.
var Endianness = binary.LittleEndian

// Mode is the radio mode reported by the co-processor.
type Mode uint8

const (
	// ModeStation means the radio is joining (or joined to) an access point.
	ModeStation Mode = iota
	// ModeAccessPoint means the radio is hosting its own access point.
	ModeAccessPoint
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStation:
		return "station"
	case ModeAccessPoint:
		return "access-point"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// IncomingPacketType is a type of packet sent to the co-processor.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeBrightnessPacket
	TypeClearPacket
	TypeSetPacket
	TypeJoinPacket
	TypeAccessPointPacket
)

// String returns a string representation of the packet type.
func (t IncomingPacketType) String() string {
	switch t {
	case TypeInitializePacket:
		return "initialize"
	case TypeBrightnessPacket:
		return "brightness"
	case TypeClearPacket:
		return "clear"
	case TypeSetPacket:
		return "set"
	case TypeJoinPacket:
		return "join"
	case TypeAccessPointPacket:
		return "access-point"
	default:
		return fmt.Sprintf("IncomingPacketType(%d)", t)
	}
}

// IncomingPacket is a packet sent over the wire to the co-processor.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket is a packet that initializes the LED ring.
type InitializePacket struct {
	NumLEDs uint16
}

// BrightnessPacket sets the global output brightness of the ring.
type BrightnessPacket struct {
	Level uint8
}

// ClearPacket is a packet that turns the whole ring off.
type ClearPacket struct{}

// SetPacket is a packet that sets the ring to the given colors and
// latches them to the hardware.
type SetPacket struct {
	Pix []uint8
}

// JoinPacket asks the radio to associate with the given network.
// The co-processor never replies directly; the result is observable
// through subsequent StatusPackets.
type JoinPacket struct {
	SSID string
	Pass string
}

// AccessPointPacket asks the radio to host its own access point.
type AccessPointPacket struct {
	SSID string
}

func (p InitializePacket) Type() IncomingPacketType  { return TypeInitializePacket }
func (p BrightnessPacket) Type() IncomingPacketType  { return TypeBrightnessPacket }
func (p ClearPacket) Type() IncomingPacketType       { return TypeClearPacket }
func (p SetPacket) Type() IncomingPacketType         { return TypeSetPacket }
func (p JoinPacket) Type() IncomingPacketType        { return TypeJoinPacket }
func (p AccessPointPacket) Type() IncomingPacketType { return TypeAccessPointPacket }

// OutgoingPacketType is a type of packet sent by the co-processor.
type OutgoingPacketType uint8

const (
	TypeStatusPacket OutgoingPacketType = iota
	TypeAckPacket
	TypeErrorPacket
	TypePanicPacket
	TypeLogPacket
)

// String returns a string representation of the packet type.
func (t OutgoingPacketType) String() string {
	switch t {
	case TypeStatusPacket:
		return "status"
	case TypeAckPacket:
		return "ack"
	case TypeErrorPacket:
		return "error"
	case TypePanicPacket:
		return "panic"
	case TypeLogPacket:
		return "log"
	default:
		return fmt.Sprintf("OutgoingPacketType(%d)", t)
	}
}

// OutgoingPacket is a packet sent over the wire by the co-processor.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// StatusPacket reports the current radio state. The co-processor pushes
// one on every state change and periodically while idle.
type StatusPacket struct {
	Associated bool
	Mode       Mode
}

// AckPacket acknowledges an incoming packet.
type AckPacket struct {
	IncomingPacketType IncomingPacketType
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the co-processor cannot recover.
type PanicPacket struct{}

// LogPacket is a packet that contains a log message.
type LogPacket struct {
	Message string
}

func (p StatusPacket) Type() OutgoingPacketType { return TypeStatusPacket }
func (p AckPacket) Type() OutgoingPacketType    { return TypeAckPacket }
func (p ErrorPacket) Type() OutgoingPacketType  { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType  { return TypePanicPacket }
func (p LogPacket) Type() OutgoingPacketType    { return TypeLogPacket }

// Reader is a reader that reads packets.
type Reader interface {
	io.ByteReader
	io.Reader
}

// ReadContext is the state of the LED ring. Data in this structure are
// required for the co-processor to read incoming packets.
type ReadContext struct {
	// NumLEDs is the number of LEDs in the ring.
	NumLEDs uint16
}

// ReadIncomingPacket reads an incoming packet from the given reader.
func ReadIncomingPacket(r io.Reader, context ReadContext) (IncomingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet IncomingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	switch ptype := IncomingPacketType(ptypeBuf[0]); ptype {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read number of LEDs: %w", err)
		}
		packet = p

	case TypeBrightnessPacket:
		var p BrightnessPacket
		if err := binary.Read(r, Endianness, &p); err != nil {
			return nil, fmt.Errorf("failed to read brightness level: %w", err)
		}
		packet = p

	case TypeClearPacket:
		var p ClearPacket
		packet = p

	case TypeSetPacket:
		var p SetPacket
		p.Pix = make([]uint8, 3*context.NumLEDs)
		if _, err := io.ReadFull(r, p.Pix); err != nil {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		packet = p

	case TypeJoinPacket:
		var p JoinPacket
		var err error
		if p.SSID, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read SSID: %w", err)
		}
		if p.Pass, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		packet = p

	case TypeAccessPointPacket:
		var p AccessPointPacket
		var err error
		if p.SSID, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read SSID: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := verifyChecksum(r, hash); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteIncomingPacket writes an incoming packet to the given writer.
func WriteIncomingPacket(w io.Writer, p IncomingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	if err := binary.Write(w, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case InitializePacket:
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case BrightnessPacket:
		if err := binary.Write(w, Endianness, p); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case ClearPacket:
		// Type byte only.
	case SetPacket:
		if _, err := w.Write(p.Pix); err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
	case JoinPacket:
		if err := writeString(w, p.SSID); err != nil {
			return fmt.Errorf("failed to write SSID: %w", err)
		}
		if err := writeString(w, p.Pass); err != nil {
			return fmt.Errorf("failed to write passphrase: %w", err)
		}
	case AccessPointPacket:
		if err := writeString(w, p.SSID); err != nil {
			return fmt.Errorf("failed to write SSID: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

// ReadOutgoingPacket reads an outgoing packet from the given reader.
func ReadOutgoingPacket(r io.Reader, context ReadContext) (OutgoingPacket, error) {
	hash := crc32.NewIEEE()
	r = io.TeeReader(r, hash)

	var packet OutgoingPacket
	var ptypeBuf [1]byte
	if _, err := io.ReadFull(r, ptypeBuf[:]); err != nil {
		return nil, fmt.Errorf("failed to read outgoing packet type: %w", err)
	}

	switch ptype := OutgoingPacketType(ptypeBuf[0]); ptype {
	case TypeStatusPacket:
		var raw struct {
			Associated uint8
			Mode       uint8
		}
		if err := binary.Read(r, Endianness, &raw); err != nil {
			return nil, fmt.Errorf("failed to read status: %w", err)
		}
		packet = StatusPacket{
			Associated: raw.Associated != 0,
			Mode:       Mode(raw.Mode),
		}

	case TypeAckPacket:
		var raw uint8
		if err := binary.Read(r, Endianness, &raw); err != nil {
			return nil, fmt.Errorf("failed to read acked packet type: %w", err)
		}
		packet = AckPacket{IncomingPacketType: IncomingPacketType(raw)}

	case TypeErrorPacket:
		var p ErrorPacket
		var err error
		if p.Message, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read error message: %w", err)
		}
		packet = p

	case TypePanicPacket:
		var p PanicPacket
		packet = p

	case TypeLogPacket:
		var p LogPacket
		var err error
		if p.Message, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read log message: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %s", ptype)
	}

	if err := verifyChecksum(r, hash); err != nil {
		return nil, err
	}

	return packet, nil
}

// WriteOutgoingPacket writes an outgoing packet to the given writer.
func WriteOutgoingPacket(w io.Writer, p OutgoingPacket) error {
	hash := crc32.NewIEEE()
	w = io.MultiWriter(w, hash)

	if err := binary.Write(w, Endianness, p.Type()); err != nil {
		return fmt.Errorf("failed to write packet type: %w", err)
	}

	switch p := p.(type) {
	case StatusPacket:
		raw := struct {
			Associated uint8
			Mode       uint8
		}{Mode: uint8(p.Mode)}
		if p.Associated {
			raw.Associated = 1
		}
		if err := binary.Write(w, Endianness, raw); err != nil {
			return fmt.Errorf("failed to write status: %w", err)
		}
	case AckPacket:
		if err := binary.Write(w, Endianness, uint8(p.IncomingPacketType)); err != nil {
			return fmt.Errorf("failed to write acked packet type: %w", err)
		}
	case ErrorPacket:
		if err := writeString(w, p.Message); err != nil {
			return fmt.Errorf("failed to write error message: %w", err)
		}
	case PanicPacket:
		// Type byte only.
	case LogPacket:
		if err := writeString(w, p.Message); err != nil {
			return fmt.Errorf("failed to write log message: %w", err)
		}
	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	if err := binary.Write(w, Endianness, hash.Sum32()); err != nil {
		return fmt.Errorf("failed to write packet checksum: %w", err)
	}

	return nil
}

func readString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, Endianness, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, Endianness, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func verifyChecksum(r io.Reader, hash interface{ Sum32() uint32 }) error {
	// The checksum covers everything up to itself, so it has to be snapped
	// before the read below feeds the TeeReader.
	want := hash.Sum32()

	var checksum uint32
	if err := binary.Read(r, Endianness, &checksum); err != nil {
		return fmt.Errorf("failed to read packet checksum: %w", err)
	}
	if checksum != want {
		return fmt.Errorf("packet checksum mismatch")
	}
	return nil
}
