// Package sample contains the periodic sensor samplers. Each sampler exposes a
// Tick that performs one loop iteration and publishes into state.Latest.
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
	// EdgesPerUpdate is the number of level changes counted between speed
	// updates, and the number of level changes assumed per revolution.
	// Rising and falling edges are both counted, so a sensor producing one
	// pulse per revolution is counted twice. It is not confirmed whether the
	// sensor really gives two transitions per revolution; do not halve this
	// without checking the wheel.
	EdgesPerUpdate = 30

	// RPMPollInterval is the period at which the rotation pin is polled.
	RPMPollInterval = 10 * time.Millisecond

	// MinElapsed is the smallest measurement window used in the speed
	// formula. Shorter windows, including zero, are clamped to it.
	MinElapsed = time.Millisecond
)

// RPMSampler estimates rotational speed by polling a pulse pin and counting
// level changes.
type RPMSampler struct {
	in     board.DigitalInput
	pin    board.Pin
	latest *state.Latest
	logger logging.Logger
	now    func() time.Time

	started      bool
	lastLevel    board.Level
	edges        int
	lastCrossing time.Time
}

// NewRPMSampler creates a sampler reading pin from in and publishing to latest.
func NewRPMSampler(in board.DigitalInput, pin board.Pin, latest *state.Latest, logger logging.Logger) *RPMSampler {
	return &RPMSampler{
		in:     in,
		pin:    pin,
		latest: latest,
		logger: logger,
		now:    time.Now,
	}
}

// Start records the initial pin level and the start of the first window.
func (s *RPMSampler) Start() error {
	lvl, err := s.in.ReadLevel(s.pin)
	if err != nil {
		return fmt.Errorf("read %s: %w", s.pin, err)
	}
	s.lastLevel = lvl
	s.edges = 0
	s.lastCrossing = s.now()
	s.started = true
	return nil
}

// Tick polls the pin once. Every EdgesPerUpdate level changes the speed is
// recomputed from the time since the previous update.
func (s *RPMSampler) Tick(_ context.Context) task.Result {
	if !s.started {
		if err := s.Start(); err != nil {
			return task.Retry(err)
		}
		return task.OK()
	}

	lvl, err := s.in.ReadLevel(s.pin)
	if err != nil {
		return task.Retry(fmt.Errorf("read %s: %w", s.pin, err))
	}
	if lvl == s.lastLevel {
		return task.OK()
	}
	s.lastLevel = lvl
	s.edges++

	if s.edges < EdgesPerUpdate {
		s.logger.Debug("edges %d", s.edges)
		return task.OK()
	}

	now := s.now()
	rpm := RPM(now.Sub(s.lastCrossing))
	s.latest.SetRPM(rpm)
	s.logger.Debug("RPM %d", rpm)

	s.edges = 0
	s.lastCrossing = now

	return task.OK()
}

// Spec returns the task spec polling at interval.
func (s *RPMSampler) Spec(interval time.Duration) task.Spec {
	if interval <= 0 {
		interval = RPMPollInterval
	}
	return task.Spec{Name: "rpm", Interval: interval, Tick: s.Tick}
}

// RPM converts the duration of one EdgesPerUpdate window to revolutions per
// minute, truncating to whole milliseconds first.
func RPM(elapsed time.Duration) uint32 {
	ms := elapsed.Milliseconds()
	if ms < MinElapsed.Milliseconds() {
		ms = MinElapsed.Milliseconds()
	}
	return uint32(60000 / ms)
}
