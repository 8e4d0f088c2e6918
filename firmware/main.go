//go:build tinygo

//go:generate tinygo flash -target=xiao

// Command firmware streams the rotation, endstop and pressure inputs of a
// HidroROLL machine to the host agent over UART.
package main

import (
	"machine"
	"time"
)

var (
	adc  machine.ADC
	uart = machine.UART0

	inputs = [3]machine.Pin{PIN_ROTATION, PIN_ENDSTOP, PIN_AUX}
	levels [3]bool

	lastLine time.Time
)

func main() {
	for _, pin := range inputs {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adc = machine.ADC{Pin: PIN_ADC}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastLine = time.Now()

	for {
		now := time.Now()

		// Level changes go out right away. The host only looks at the latest
		// frame on each poll, so pulses shorter than its poll period still merge.
		changed := readLevels()
		if changed || now.Sub(lastLine) >= time.Duration(LINE_INTERVAL_MS)*time.Millisecond {
			writeLine(now)
			lastLine = now
		}

		time.Sleep(POLL_INTERVAL_US * time.Microsecond)
	}
}

// readLevels samples every digital input and reports whether any changed.
func readLevels() bool {
	var changed bool
	for i, pin := range inputs {
		lvl := pin.Get()
		if lvl != levels[i] {
			changed = true
		}
		levels[i] = lvl
	}
	return changed
}

func writeLine(now time.Time) {
	// machine.ADC.Get returns a left-aligned 16-bit value
	raw := adc.Get() >> (16 - ADC_RESOLUTION)

	// Output format: "unix_micros,raw,rotation endstop aux\n"
	// Example: "1234567890123,2048,101\n"
	print(now.UnixNano() / 1000)
	print(",")
	print(raw)
	print(",")
	for _, lvl := range levels {
		if lvl {
			print("1")
		} else {
			print("0")
		}
	}
	print("\n")
}
