package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterize(t *testing.T) {
	chars, err := Characterize(1, 11, 12, 1100)
	require.NoError(t, err)

	assert.Equal(t, uint32(52798), chars.CoeffA)
	assert.Equal(t, uint32(142), chars.CoeffB)
}

func TestCharacterize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		unit  int
		atten Attenuation
		width int
		vref  int
	}{
		{name: "unit", unit: 3, atten: 11, width: 12, vref: 1100},
		{name: "unit 2", unit: 2, atten: 11, width: 12, vref: 1100},
		{name: "attenuation", unit: 1, atten: 3, width: 12, vref: 1100},
		{name: "width too small", unit: 1, atten: 11, width: 8, vref: 1100},
		{name: "width too large", unit: 1, atten: 11, width: 13, vref: 1100},
		{name: "vref low", unit: 1, atten: 11, width: 12, vref: 900},
		{name: "vref high", unit: 1, atten: 11, width: 12, vref: 1300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chars, err := Characterize(tt.unit, tt.atten, tt.width, tt.vref)
			assert.Error(t, err)
			assert.Nil(t, chars)
		})
	}
}

func TestRawToVoltage(t *testing.T) {
	chars, err := Characterize(1, 11, 12, 1100)
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  uint16
		want uint32
	}{
		{name: "zero code is the offset", raw: 0, want: 142},
		{name: "mid scale", raw: 2048, want: 1792},
		{name: "full scale", raw: 4095, want: 3441},
		{name: "above full scale is clamped", raw: 5000, want: 3441},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chars.RawToVoltage(tt.raw))
		})
	}
}

func TestRawToVoltage_Monotonic(t *testing.T) {
	chars, err := Characterize(1, 6, 12, 1100)
	require.NoError(t, err)

	prev := chars.RawToVoltage(0)
	for raw := uint16(1); raw <= 4095; raw++ {
		mv := chars.RawToVoltage(raw)
		require.GreaterOrEqual(t, mv, prev, "raw %d", raw)
		prev = mv
	}
}

func TestRawToVoltage_NarrowWidth(t *testing.T) {
	chars, err := Characterize(1, 0, 10, 1100)
	require.NoError(t, err)

	// 10-bit codes are scaled up to 12 bits before conversion
	assert.Equal(t, uint32(1038), chars.RawToVoltage(1023))
	assert.Equal(t, uint32(75), chars.RawToVoltage(0))
}
