package main

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"machine"
	"sync"

	"tinygo.org/x/drivers/ws2812"
)

// Reader combines the io.ByteReader and io.Reader interfaces.
type Reader interface {
	io.ByteReader
	io.Reader
}

var _ Reader = (*machine.UART)(nil)

// Device stores the current state of the co-processor.
type Device struct {
	uart  *machine.UART
	led   ws2812.Device
	radio *Radio

	// wmu serializes UART writes between the packet handler and the
	// status loop.
	wmu sync.Mutex

	numLEDs    uint16
	brightness uint8
	frame      []uint8
}

// NewDevice creates a new device.
func NewDevice(uart *machine.UART, ledPin machine.Pin, radio *Radio) *Device {
	return &Device{
		uart:       uart,
		led:        ws2812.New(ledPin),
		radio:      radio,
		brightness: 255,
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		p, err := d.readPacket()
		if err != nil {
			d.panic(err)
		}
		if err := d.handlePacket(p); err != nil {
			d.logError(err)
			continue
		}
		d.sendPacket(AckPacket{For: p.Type()})
	}
}

// StatusLoop pushes a status packet every second, forever. Run it on its
// own goroutine.
func (d *Device) StatusLoop(interval func()) {
	for {
		interval()
		d.sendPacket(StatusPacket{
			Associated: d.radio.Associated(),
			Mode:       d.radio.Mode(),
		})
	}
}

func (d *Device) panic(err error) {
	d.logError(err)
	d.sendPacket(PanicPacket{})
	panic("device panic")
}

func (d *Device) logError(err error) {
	d.sendPacket(ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p OutgoingPacket) {
	d.wmu.Lock()
	defer d.wmu.Unlock()

	hash := crc32.NewIEEE()
	w := io.MultiWriter(d.uart, hash)

	w.Write([]byte{byte(p.Type())})
	switch p := p.(type) {
	case StatusPacket:
		var associated byte
		if p.Associated {
			associated = 1
		}
		w.Write([]byte{associated, p.Mode})
	case AckPacket:
		w.Write([]byte{byte(p.For)})
	case ErrorPacket:
		binary.Write(w, binary.LittleEndian, uint16(len(p.Message)))
		io.WriteString(w, p.Message)
	case PanicPacket:
	}
	binary.Write(d.uart, binary.LittleEndian, hash.Sum32())
}

func (d *Device) readPacket() (IncomingPacket, error) {
	r := &crcReader{r: d.uart}

	ptype, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read incoming packet type: %w", err)
	}

	var packet IncomingPacket
	switch IncomingPacketType(ptype) {
	case TypeInitializePacket:
		var p InitializePacket
		if err := binary.Read(r, binary.LittleEndian, &p.NumLEDs); err != nil {
			return nil, fmt.Errorf("failed to read number of LEDs: %w", err)
		}
		packet = p

	case TypeBrightnessPacket:
		var p BrightnessPacket
		if p.Level, err = r.ReadByte(); err != nil {
			return nil, fmt.Errorf("failed to read brightness: %w", err)
		}
		packet = p

	case TypeClearPacket:
		packet = ClearPacket{}

	case TypeSetPacket:
		p := SetPacket{Pix: make([]uint8, 3*d.numLEDs)}
		if _, err := io.ReadFull(r, p.Pix); err != nil {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		packet = p

	case TypeJoinPacket:
		var p JoinPacket
		if p.SSID, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read SSID: %w", err)
		}
		if p.Pass, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		packet = p

	case TypeAccessPointPacket:
		var p AccessPointPacket
		if p.SSID, err = readString(r); err != nil {
			return nil, fmt.Errorf("failed to read SSID: %w", err)
		}
		packet = p

	default:
		return nil, fmt.Errorf("unknown packet type: %d", ptype)
	}

	want := r.Sum32()
	var checksum uint32
	if err := binary.Read(r, binary.LittleEndian, &checksum); err != nil {
		return nil, fmt.Errorf("failed to read checksum: %w", err)
	}
	if checksum != want {
		return nil, fmt.Errorf("checksum mismatch")
	}

	return packet, nil
}

func (d *Device) handlePacket(p IncomingPacket) error {
	switch p := p.(type) {
	case InitializePacket:
		if p.NumLEDs < 1 {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.numLEDs = p.NumLEDs
		d.frame = make([]uint8, 3*p.NumLEDs)
		return nil

	case BrightnessPacket:
		d.brightness = p.Level
		return nil

	case ClearPacket:
		for i := range d.frame {
			d.frame[i] = 0
		}
		d.flush()
		return nil

	case SetPacket:
		if len(p.Pix) != len(d.frame) {
			return fmt.Errorf("invalid number of pixels: %d", len(p.Pix)/3)
		}
		copy(d.frame, p.Pix)
		d.flush()
		return nil

	case JoinPacket:
		return d.radio.Join(p.SSID, p.Pass)

	case AccessPointPacket:
		return d.radio.StartAccessPoint(p.SSID)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}
}

// flush latches the frame to the ws2812 ring, scaled by the global
// brightness.
func (d *Device) flush() {
	scale := uint16(d.brightness)
	for _, b := range d.frame {
		d.led.WriteByte(uint8(uint16(b) * scale / 255))
	}
}

func readString(r Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// crcReader tracks a running CRC32 of everything read through it.
type crcReader struct {
	r   Reader
	crc uint32
}

func (c *crcReader) Sum32() uint32 { return c.crc }

func (c *crcReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.crc = crc32.Update(c.crc, crc32.IEEETable, []byte{b})
	}
	return b, err
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p[:n])
	return n, err
}
