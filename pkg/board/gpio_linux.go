//go:build linux

package board

import (
	"fmt"
	"sync"

	"github.com/warthog618/gpiod"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/itohio/hidroroll/pkg/config"
)

// GPIO reads the digital pins from a GPIO character device and the analog
// channel from an ADS1115 on an I2C bus.
type GPIO struct {
	cfg config.GPIOConfig

	mu        sync.RWMutex
	lines     map[Pin]*gpiod.Line
	bus       i2c.BusCloser
	adc       *ADS1115
	connected bool
}

// NewGPIO creates a GPIO board. Nothing is requested until Connect.
func NewGPIO(cfg config.GPIOConfig) *GPIO {
	return &GPIO{cfg: cfg}
}

// Connect requests the input lines and opens the I2C bus.
func (g *GPIO) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.connected {
		return fmt.Errorf("already connected")
	}

	offsets := map[Pin]int{
		PinRotation: g.cfg.Rotation,
		PinEndstop:  g.cfg.Endstop,
		PinAux:      g.cfg.Aux,
	}
	lines := make(map[Pin]*gpiod.Line, len(offsets))
	for pin, offset := range offsets {
		l, err := gpiod.RequestLine(g.cfg.Chip, offset, gpiod.AsInput)
		if err != nil {
			closeLines(lines)
			return fmt.Errorf("request %s line %s:%d: %w", pin, g.cfg.Chip, offset, err)
		}
		lines[pin] = l
	}

	if _, err := host.Init(); err != nil {
		closeLines(lines)
		return fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(g.cfg.I2CBus)
	if err != nil {
		closeLines(lines)
		return fmt.Errorf("open i2c bus %q: %w", g.cfg.I2CBus, err)
	}

	g.lines = lines
	g.bus = bus
	g.adc = NewADS1115(bus, g.cfg.ADCAddress)
	g.connected = true

	return nil
}

// Close releases the lines and the bus.
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return nil
	}

	closeLines(g.lines)
	g.lines = nil

	var err error
	if g.bus != nil {
		err = g.bus.Close()
		g.bus = nil
	}
	g.adc = nil
	g.connected = false

	return err
}

// IsConnected returns whether the board is currently connected.
func (g *GPIO) IsConnected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// ReadLevel returns the instantaneous level of pin.
func (g *GPIO) ReadLevel(pin Pin) (Level, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.connected {
		return Low, ErrNotConnected
	}
	l, ok := g.lines[pin]
	if !ok {
		return Low, fmt.Errorf("%w: %s", ErrUnknownPin, pin)
	}

	v, err := l.Value()
	if err != nil {
		return Low, fmt.Errorf("read %s: %w", pin, err)
	}
	if v != 0 {
		return High, nil
	}
	return Low, nil
}

// ReadRaw performs one ADC conversion on ch.
func (g *GPIO) ReadRaw(ch Channel) (uint16, error) {
	g.mu.RLock()
	adc := g.adc
	g.mu.RUnlock()

	if adc == nil {
		return 0, ErrNotConnected
	}
	return adc.Read(ch)
}

func closeLines(lines map[Pin]*gpiod.Line) {
	for _, l := range lines {
		l.Close()
	}
}
