// Package state holds the latest-value container shared by the samplers and
// the status publisher. Only the most recent measurement is kept; there is no
// history and no queue.
package state

import (
	"sync"
	"time"
)

// Snapshot is a consistent copy of every field at one instant.
type Snapshot struct {
	RPM        uint32
	Pressure   uint32
	Endstop    bool
	Raw        uint16 // Averaged ADC code behind Pressure
	Millivolts uint32 // Calibrated voltage of Raw
	RPMAt      time.Time
	AnalogAt   time.Time
}

// Latest is the shared latest-value state. Writers never wait for readers;
// the last write wins.
type Latest struct {
	mu   sync.RWMutex
	snap Snapshot
}

// New returns a zeroed container.
func New() *Latest {
	return &Latest{}
}

// SetRPM publishes a new speed estimate.
func (l *Latest) SetRPM(rpm uint32) {
	l.mu.Lock()
	l.snap.RPM = rpm
	l.snap.RPMAt = time.Now()
	l.mu.Unlock()
}

// SetAnalog publishes the analog sampler outputs as one group.
func (l *Latest) SetAnalog(raw uint16, millivolts, pressure uint32, endstop bool) {
	l.mu.Lock()
	l.snap.Raw = raw
	l.snap.Millivolts = millivolts
	l.snap.Pressure = pressure
	l.snap.Endstop = endstop
	l.snap.AnalogAt = time.Now()
	l.mu.Unlock()
}

// RPM returns the latest speed estimate.
func (l *Latest) RPM() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.RPM
}

// Pressure returns the latest normalized pressure.
func (l *Latest) Pressure() uint32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.Pressure
}

// Endstop returns the latest end-of-travel level.
func (l *Latest) Endstop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap.Endstop
}

// Snapshot returns all fields read under one lock.
func (l *Latest) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
