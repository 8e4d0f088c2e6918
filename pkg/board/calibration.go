package board

import "fmt"

// ADC characterization using a default reference voltage. Voltage is a linear
// function of the 12-bit code: mv = (coeffA*raw + 2^15) / 2^16 + coeffB.

const (
	adcMaxWidth   = 12
	adcFullScale  = 1<<adcMaxWidth - 1
	coeffAScale   = 65536
	coeffARound   = coeffAScale / 2
	adcResolution = 4096

	minVRef = 1000
	maxVRef = 1200
)

// Attenuation is the ADC input attenuation in dB. 2 stands for 2.5 dB.
type Attenuation int

var attenuationScale = map[Attenuation]uint32{
	0:  57431,
	2:  76236,
	6:  105481,
	11: 196602,
}

var attenuationOffset = map[Attenuation]uint32{
	0:  75,
	2:  78,
	6:  88,
	11: 142,
}

// Characteristics is the calibration table built once at startup.
type Characteristics struct {
	Unit        int
	Attenuation Attenuation
	Width       int
	VRef        uint32
	CoeffA      uint32
	CoeffB      uint32
}

// Characterize builds the calibration table for an ADC unit.
func Characterize(unit int, atten Attenuation, width int, vrefMV int) (*Characteristics, error) {
	// Only ADC1 tables are known; ADC2 needs its own scale and offsets.
	if unit != 1 {
		return nil, fmt.Errorf("invalid ADC unit %d: %w", unit, ErrUnsupported)
	}
	scale, ok := attenuationScale[atten]
	if !ok {
		return nil, fmt.Errorf("invalid attenuation %d dB", atten)
	}
	if width < 9 || width > adcMaxWidth {
		return nil, fmt.Errorf("invalid bit width %d", width)
	}
	if vrefMV < minVRef || vrefMV > maxVRef {
		return nil, fmt.Errorf("reference voltage %d mV out of range [%d, %d]", vrefMV, minVRef, maxVRef)
	}

	return &Characteristics{
		Unit:        unit,
		Attenuation: atten,
		Width:       width,
		VRef:        uint32(vrefMV),
		CoeffA:      uint32(vrefMV) * scale / adcResolution,
		CoeffB:      attenuationOffset[atten],
	}, nil
}

// RawToVoltage converts a raw code at the characterized width to millivolts.
func (c *Characteristics) RawToVoltage(raw uint16) uint32 {
	r := uint32(raw)
	if c.Width < adcMaxWidth {
		r <<= uint(adcMaxWidth - c.Width)
	}
	if r > adcFullScale {
		r = adcFullScale
	}
	return (c.CoeffA*r+coeffARound)/coeffAScale + c.CoeffB
}
