package main

// Co-processor firmware for the ringlight daemon. Flash with
// tinygo flash -target=pico-w ./cmd/ringserial

import (
	"machine"
	"time"
)

const ledPin = machine.GP16

func main() {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	radio, err := NewRadio()
	if err != nil {
		println("radio init failed:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}

	d := NewDevice(uart, ledPin, radio)
	go d.StatusLoop(func() { time.Sleep(time.Second) })
	d.Run()
}
