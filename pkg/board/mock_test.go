package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/hidroroll/pkg/config"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestMock(t *testing.T) (*Mock, *fakeClock) {
	t.Helper()
	cfg := &config.MockConfig{
		RPM:            120,
		PressureRaw:    2048,
		PressureSwing:  512,
		PressurePeriod: 20 * time.Second,
		EndstopPeriod:  30 * time.Second,
	}
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewMock(cfg)
	m.now = clock.Now
	require.NoError(t, m.Connect())
	return m, clock
}

func TestMock_NotConnected(t *testing.T) {
	m := NewMock(nil)

	_, err := m.ReadLevel(PinRotation)
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = m.ReadRaw(0)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.False(t, m.IsConnected())
}

func TestMock_ConnectTwice(t *testing.T) {
	m, _ := newTestMock(t)
	assert.Error(t, m.Connect())
	assert.True(t, m.IsConnected())

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())
}

func TestMock_RotationToggles(t *testing.T) {
	m, clock := newTestMock(t)
	start := clock.t

	tests := []struct {
		at   time.Duration
		want Level
	}{
		{at: 0, want: Low},
		{at: 10 * time.Millisecond, want: Low},
		{at: 17 * time.Millisecond, want: High},
		{at: 34 * time.Millisecond, want: Low},
		{at: 51 * time.Millisecond, want: High},
	}

	for _, tt := range tests {
		clock.t = start.Add(tt.at)
		got, err := m.ReadLevel(PinRotation)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "at %s", tt.at)
	}
}

func TestMock_EdgeRateMatchesRPM(t *testing.T) {
	m, clock := newTestMock(t)
	start := clock.t

	// 120 RPM for one second is two revolutions, 60 edges
	prev, err := m.ReadLevel(PinRotation)
	require.NoError(t, err)
	edges := 0
	for ms := 1; ms <= 1000; ms++ {
		clock.t = start.Add(time.Duration(ms) * time.Millisecond)
		lvl, err := m.ReadLevel(PinRotation)
		require.NoError(t, err)
		if lvl != prev {
			edges++
			prev = lvl
		}
	}
	assert.Equal(t, 60, edges)
}

func TestMock_Endstop(t *testing.T) {
	m, clock := newTestMock(t)
	start := clock.t

	lvl, err := m.ReadLevel(PinEndstop)
	require.NoError(t, err)
	assert.Equal(t, Low, lvl)

	clock.t = start.Add(16 * time.Second)
	lvl, err = m.ReadLevel(PinEndstop)
	require.NoError(t, err)
	assert.Equal(t, High, lvl)

	lvl, err = m.ReadLevel(PinAux)
	require.NoError(t, err)
	assert.Equal(t, Low, lvl)

	_, err = m.ReadLevel(Pin(9))
	assert.ErrorIs(t, err, ErrUnknownPin)
}

func TestMock_ReadRaw(t *testing.T) {
	m, clock := newTestMock(t)
	start := clock.t

	raw, err := m.ReadRaw(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(2048), raw)

	clock.t = start.Add(5 * time.Second)
	raw, err = m.ReadRaw(0)
	require.NoError(t, err)
	assert.InDelta(t, 2560, int(raw), 1)

	clock.t = start.Add(15 * time.Second)
	raw, err = m.ReadRaw(0)
	require.NoError(t, err)
	assert.InDelta(t, 1536, int(raw), 1)

	_, err = m.ReadRaw(1)
	assert.ErrorIs(t, err, ErrUnsupported)
}
