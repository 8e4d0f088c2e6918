package board

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// ADS1115 registers and single-shot configuration.
const (
	adsRegConversion = 0x00
	adsRegConfig     = 0x01

	adsStartSingle = 1 << 15
	adsMuxSingle   = 0b100 << 12 // AINx against GND, x added to the low mux bits
	adsPGA4096     = 0b001 << 9  // +-4.096 V
	adsModeSingle  = 1 << 8
	adsRate860     = 0b111 << 5
	adsCompDisable = 0b11

	// adsConversionTime covers one conversion at 860 samples per second.
	adsConversionTime = 2 * time.Millisecond
)

// ADS1115 reads single-ended conversions from a TI ADS1115 on an I2C bus and
// scales them to 12-bit codes.
type ADS1115 struct {
	mu   sync.Mutex
	dev  *i2c.Dev
	wait time.Duration
}

// NewADS1115 returns a converter at addr on bus.
func NewADS1115(bus i2c.Bus, addr uint16) *ADS1115 {
	return &ADS1115{
		dev:  &i2c.Dev{Bus: bus, Addr: addr},
		wait: adsConversionTime,
	}
}

// Read starts a single-shot conversion on ch and returns it as a 12-bit code.
func (a *ADS1115) Read(ch Channel) (uint16, error) {
	if ch < 0 || ch > 3 {
		return 0, fmt.Errorf("ads1115 channel %d: %w", ch, ErrUnsupported)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := adsConfigWord(ch)
	if err := a.dev.Tx([]byte{adsRegConfig, byte(cfg >> 8), byte(cfg)}, nil); err != nil {
		return 0, fmt.Errorf("ads1115 start conversion: %w", err)
	}

	time.Sleep(a.wait)

	var buf [2]byte
	if err := a.dev.Tx([]byte{adsRegConversion}, buf[:]); err != nil {
		return 0, fmt.Errorf("ads1115 read conversion: %w", err)
	}
	return adsToRaw12(buf), nil
}

func adsConfigWord(ch Channel) uint16 {
	return adsStartSingle | adsMuxSingle | uint16(ch)<<12 | adsPGA4096 | adsModeSingle | adsRate860 | adsCompDisable
}

// adsToRaw12 maps the signed 16-bit result to 0..4095. Negative readings
// clamp to zero.
func adsToRaw12(buf [2]byte) uint16 {
	v := int16(uint16(buf[0])<<8 | uint16(buf[1]))
	if v < 0 {
		return 0
	}
	return uint16(v) >> 3
}
