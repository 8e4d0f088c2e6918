//go:build !linux

package board

import "github.com/itohio/hidroroll/pkg/config"

// GPIO is only available on Linux.
type GPIO struct {
	cfg config.GPIOConfig
}

// NewGPIO creates a GPIO board that always fails to connect.
func NewGPIO(cfg config.GPIOConfig) *GPIO {
	return &GPIO{cfg: cfg}
}

func (g *GPIO) Connect() error                  { return ErrUnsupported }
func (g *GPIO) Close() error                    { return nil }
func (g *GPIO) IsConnected() bool               { return false }
func (g *GPIO) ReadLevel(Pin) (Level, error)    { return Low, ErrNotConnected }
func (g *GPIO) ReadRaw(Channel) (uint16, error) { return 0, ErrNotConnected }
