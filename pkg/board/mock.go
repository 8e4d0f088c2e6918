package board

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/hidroroll/pkg/config"
)

// mockEdgesPerRevolution matches the firmware assumption of 30 level changes
// per revolution.
const mockEdgesPerRevolution = 30

// Mock simulates a board for testing and development. Every reading is a pure
// function of the time elapsed since Connect.
type Mock struct {
	cfg *config.MockConfig

	mu        sync.RWMutex
	connected bool
	startTime time.Time

	// now is the clock used for all readings.
	now func() time.Time
}

// NewMock creates a new mocked board instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			RPM:            120,
			PressureRaw:    2048,
			PressureSwing:  512,
			PressurePeriod: 20 * time.Second,
			EndstopPeriod:  30 * time.Second,
		}
	}

	return &Mock{
		cfg: cfg,
		now: time.Now,
	}
}

// Connect simulates connecting to the board.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = m.now()

	return nil
}

// Close stops the mocked board.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	return nil
}

// IsConnected returns whether the board is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// ReadLevel returns the simulated level of pin.
func (m *Mock) ReadLevel(pin Pin) (Level, error) {
	elapsed, err := m.elapsed()
	if err != nil {
		return Low, err
	}

	switch pin {
	case PinRotation:
		if m.cfg.RPM <= 0 {
			return Low, nil
		}
		edge := time.Duration(float64(time.Minute) / (m.cfg.RPM * mockEdgesPerRevolution))
		if edge <= 0 {
			return Low, nil
		}
		return Level((elapsed / edge) % 2), nil
	case PinEndstop:
		half := m.cfg.EndstopPeriod / 2
		if half <= 0 {
			return Low, nil
		}
		return Level((elapsed / half) % 2), nil
	case PinAux:
		return Low, nil
	default:
		return Low, fmt.Errorf("%w: %s", ErrUnknownPin, pin)
	}
}

// ReadRaw returns a simulated 12-bit code oscillating around the configured center.
func (m *Mock) ReadRaw(ch Channel) (uint16, error) {
	elapsed, err := m.elapsed()
	if err != nil {
		return 0, err
	}
	if ch != 0 {
		return 0, fmt.Errorf("mock channel %d: %w", ch, ErrUnsupported)
	}

	val := float64(m.cfg.PressureRaw)
	if m.cfg.PressurePeriod > 0 {
		phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.PressurePeriod.Seconds()
		val += float64(m.cfg.PressureSwing) * math.Sin(phase)
	}

	if val < 0 {
		val = 0
	} else if val > adcFullScale {
		val = adcFullScale
	}
	return uint16(val), nil
}

func (m *Mock) elapsed() (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return 0, ErrNotConnected
	}
	return m.now().Sub(m.startTime), nil
}
