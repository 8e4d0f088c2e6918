package sample

import (
	"context"
	"fmt"
	"time"

	"github.com/itohio/hidroroll/pkg/board"
	"github.com/itohio/hidroroll/pkg/logging"
	"github.com/itohio/hidroroll/pkg/state"
	"github.com/itohio/hidroroll/pkg/task"
)

const (
	// AnalogSamples is the number of consecutive conversions averaged per tick.
	AnalogSamples = 64
	// AnalogInterval is the analog sampler period.
	AnalogInterval = 1000 * time.Millisecond
	// FullScale is the largest 12-bit ADC code.
	FullScale = 4095
	// MaxPressure is the top of the normalized pressure scale.
	MaxPressure = 100
)

// Converter turns a raw ADC code into calibrated millivolts.
type Converter interface {
	RawToVoltage(raw uint16) uint32
}

var _ Converter = (*board.Characteristics)(nil)

// AnalogConfig selects the inputs of an AnalogSampler.
type AnalogConfig struct {
	Channel    board.Channel
	EndstopPin board.Pin
	Samples    int
}

// AnalogSampler averages ADC conversions into a pressure value and samples the
// end-of-travel input.
type AnalogSampler struct {
	analog  board.AnalogInput
	digital board.DigitalInput
	cal     Converter
	latest  *state.Latest
	logger  logging.Logger
	cfg     AnalogConfig

	buf []uint16
}

// NewAnalogSampler creates an analog sampler publishing to latest.
func NewAnalogSampler(analog board.AnalogInput, digital board.DigitalInput, cal Converter, latest *state.Latest, logger logging.Logger, cfg AnalogConfig) *AnalogSampler {
	if cfg.Samples <= 0 {
		cfg.Samples = AnalogSamples
	}
	return &AnalogSampler{
		analog:  analog,
		digital: digital,
		cal:     cal,
		latest:  latest,
		logger:  logger,
		cfg:     cfg,
		buf:     make([]uint16, cfg.Samples),
	}
}

// Tick takes cfg.Samples consecutive conversions, averages them, and publishes the
// average, its voltage, the derived pressure and the endstop level together.
// Nothing is published if any read fails.
func (s *AnalogSampler) Tick(_ context.Context) task.Result {
	// Queued inputs would otherwise hand back readings from the previous period.
	if f, ok := s.analog.(board.Flusher); ok {
		f.Flush()
	}

	for i := range s.buf {
		raw, err := s.analog.ReadRaw(s.cfg.Channel)
		if err != nil {
			return task.Retry(fmt.Errorf("read channel %d: %w", s.cfg.Channel, err))
		}
		s.buf[i] = raw
	}

	avg := Average(s.buf)
	mv := s.cal.RawToVoltage(avg)
	pressure := Pressure(avg)

	lvl, err := s.digital.ReadLevel(s.cfg.EndstopPin)
	if err != nil {
		return task.Retry(fmt.Errorf("read %s: %w", s.cfg.EndstopPin, err))
	}
	endstop := lvl == board.High

	s.latest.SetAnalog(avg, mv, pressure, endstop)
	s.logger.Debug("Raw: %d\tVoltage: %dmV\tPressure: %d\tEndstop: %t", avg, mv, pressure, endstop)

	return task.OK()
}

// Spec returns the task spec running every interval.
func (s *AnalogSampler) Spec(interval time.Duration) task.Spec {
	if interval <= 0 {
		interval = AnalogInterval
	}
	return task.Spec{Name: "analog", Interval: interval, Tick: s.Tick}
}

// Average returns the integer-truncated mean of values, or 0 for none.
func Average(values []uint16) uint16 {
	if len(values) == 0 {
		return 0
	}

	var sum uint64
	for _, v := range values {
		sum += uint64(v)
	}
	return uint16(sum / uint64(len(values)))
}

// Pressure normalizes an averaged ADC code to 0..MaxPressure. The code is
// scaled before dividing so the result keeps integer precision.
func Pressure(raw uint16) uint32 {
	p := uint32(raw) * MaxPressure / FullScale
	if p > MaxPressure {
		p = MaxPressure
	}
	return p
}

// LegacyPressure is the formula the first firmware shipped with. The scale
// factor is divided first and truncates to zero, so the result is always 0.
// It is kept only to document that behavior and is not used by the sampler.
func LegacyPressure(raw uint16) uint32 {
	return (MaxPressure / FullScale) * uint32(raw)
}
