package main

// IncomingPacketType is a type of packet sent by the daemon.
type IncomingPacketType uint8

const (
	TypeInitializePacket IncomingPacketType = iota
	TypeBrightnessPacket
	TypeClearPacket
	TypeSetPacket
	TypeJoinPacket
	TypeAccessPointPacket
)

// IncomingPacket is a packet sent over the wire by the daemon.
type IncomingPacket interface {
	// Type returns the type of packet.
	Type() IncomingPacketType
}

// InitializePacket is a packet that initializes the LED ring.
type InitializePacket struct {
	NumLEDs uint16
}

// BrightnessPacket sets the global output brightness.
type BrightnessPacket struct {
	Level uint8
}

// ClearPacket is a packet that turns the whole ring off.
type ClearPacket struct{}

// SetPacket is a packet that sets the ring to the given colors.
type SetPacket struct {
	Pix []uint8
}

// JoinPacket asks the radio to associate with the given network.
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

// OutgoingPacketType is a type of packet sent to the daemon.
type OutgoingPacketType uint8

const (
	TypeStatusPacket OutgoingPacketType = iota
	TypeAckPacket
	TypeErrorPacket
	TypePanicPacket
	TypeLogPacket
)

// OutgoingPacket is a packet sent over the wire to the daemon.
type OutgoingPacket interface {
	// Type returns the type of packet.
	Type() OutgoingPacketType
}

// StatusPacket reports the current radio state.
type StatusPacket struct {
	Associated bool
	Mode       uint8
}

// AckPacket acknowledges an incoming packet.
type AckPacket struct {
	For IncomingPacketType
}

// ErrorPacket is a packet that indicates an error occurred.
type ErrorPacket struct {
	Message string
}

// PanicPacket is a packet that indicates the program cannot recover.
type PanicPacket struct{}

func (p StatusPacket) Type() OutgoingPacketType { return TypeStatusPacket }
func (p AckPacket) Type() OutgoingPacketType    { return TypeAckPacket }
func (p ErrorPacket) Type() OutgoingPacketType  { return TypeErrorPacket }
func (p PanicPacket) Type() OutgoingPacketType  { return TypePanicPacket }
