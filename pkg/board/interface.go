// Package board abstracts the sensor hardware: three digital input pins and
// one analog channel, backed by a simulated board, an MCU serial bridge or
// Linux GPIO plus an I2C ADC.
package board

import (
	"errors"
	"fmt"

	"github.com/itohio/hidroroll/pkg/config"
)

// Pin is a logical digital input.
type Pin int

const (
	// PinRotation carries the rotation pulse train.
	PinRotation Pin = iota
	// PinEndstop is the end-of-travel switch.
	PinEndstop
	// PinAux is reserved.
	PinAux

	numPins
)

func (p Pin) String() string {
	switch p {
	case PinRotation:
		return "rotation"
	case PinEndstop:
		return "endstop"
	case PinAux:
		return "aux"
	default:
		return fmt.Sprintf("pin(%d)", int(p))
	}
}

// Level is the instantaneous logic level of a pin.
type Level uint8

const (
	// Low is a logic zero.
	Low Level = 0
	// High is a logic one.
	High Level = 1
)

// Channel is an analog input channel.
type Channel int

var (
	// ErrUnsupported is returned for a board, channel or platform that cannot be used.
	ErrUnsupported = errors.New("unsupported")
	// ErrNotConnected is returned by reads before Connect or after Close.
	ErrNotConnected = errors.New("not connected")
	// ErrNoSample is returned when no reading arrived in time.
	ErrNoSample = errors.New("no sample available")
	// ErrUnknownPin is returned for a pin the board does not have.
	ErrUnknownPin = errors.New("unknown pin")
)

// DigitalInput reads logic levels.
type DigitalInput interface {
	ReadLevel(pin Pin) (Level, error)
}

// AnalogInput reads raw 12-bit ADC codes.
type AnalogInput interface {
	ReadRaw(ch Channel) (uint16, error)
}

// Flusher is implemented by analog inputs that queue readings. Flush drops
// the queue so the next reads return fresh conversions.
type Flusher interface {
	Flush()
}

// Board is a connectable source of digital and analog readings.
type Board interface {
	DigitalInput
	AnalogInput
	Connect() error
	Close() error
	IsConnected() bool
}

var (
	_ Board = (*Mock)(nil)
	_ Board = (*Serial)(nil)
	_ Board = (*GPIO)(nil)

	_ Flusher = (*Serial)(nil)
)

// New creates the board selected by cfg.Board.Kind. The board is not connected.
func New(cfg *config.Config) (Board, error) {
	switch cfg.Board.Kind {
	case config.BoardMock:
		return NewMock(&cfg.Mock), nil
	case config.BoardSerial:
		return NewSerial(cfg.Board.Serial.Port, cfg.Board.Serial.BaudRate, 0), nil
	case config.BoardGPIO:
		return NewGPIO(cfg.Board.GPIO), nil
	default:
		return nil, fmt.Errorf("unknown board kind %q: %w", cfg.Board.Kind, ErrUnsupported)
	}
}
