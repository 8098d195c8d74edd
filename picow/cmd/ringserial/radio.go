package main

import (
	"sync"

	"github.com/soypat/cyw43439"
)

// Radio modes, matching the wire protocol.
const (
	modeStation     uint8 = 0
	modeAccessPoint uint8 = 1
)

// Radio wraps the onboard CYW43439 Wi-Fi chip. Association state is cached
// so the status loop never touches the chip concurrently with a join.
type Radio struct {
	dev *cyw43439.Device

	mu         sync.Mutex
	associated bool
	mode       uint8
}

// NewRadio initializes the Wi-Fi chip.
func NewRadio() (*Radio, error) {
	dev := cyw43439.NewPicoWDevice()
	if err := dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
		return nil, err
	}
	return &Radio{dev: dev}, nil
}

// Associated reports whether the radio joined a network.
func (r *Radio) Associated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.associated
}

// Mode reports the current radio mode.
func (r *Radio) Mode() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Join associates with the given network. A failed join leaves the radio
// disassociated; the daemon retries on its next poll.
func (r *Radio) Join(ssid, pass string) error {
	err := r.dev.JoinWPA2(ssid, pass)

	r.mu.Lock()
	r.associated = err == nil
	r.mode = modeStation
	r.mu.Unlock()
	return err
}

// StartAccessPoint hosts an open access point with the given SSID.
func (r *Radio) StartAccessPoint(ssid string) error {
	err := r.dev.StartAP(ssid, "", 1)

	r.mu.Lock()
	r.associated = false
	r.mode = modeAccessPoint
	r.mu.Unlock()
	return err
}
