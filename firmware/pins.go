//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	LINE_INTERVAL_MS = 4 // Emit a line at least this often
	POLL_INTERVAL_US = 200

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Digital inputs, in the order they appear on the wire
	PIN_ROTATION = machine.D7
	PIN_ENDSTOP  = machine.D8
	PIN_AUX      = machine.D9

	// Pressure/position sensor
	PIN_ADC = machine.A1

	// Serial configuration
	// Format "unix_micros,raw,rotation endstop aux\n"
	// Example: "1234567890123456,4095,101\n" = ~26 bytes max per line
	// 250 lines/sec * 26 bytes/line = 6,500 bytes/sec
	// Level changes add a line each; at 600 rpm with 30 edges per revolution that is 300 more.
	// 115200 baud carries 11,520 bytes/sec
	UART_BAUD_RATE = 115200
)
