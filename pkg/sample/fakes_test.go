package sample

import (
	"errors"
	"sync"
	"time"

	"github.com/itohio/hidroroll/pkg/board"
)

var errRead = errors.New("bus error")

// scriptedPin returns levels in order and repeats the last one when exhausted.
type scriptedPin struct {
	mu     sync.Mutex
	levels []board.Level
	pos    int
	err    error
}

func (p *scriptedPin) ReadLevel(board.Pin) (board.Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return board.Low, p.err
	}
	if len(p.levels) == 0 {
		return board.Low, nil
	}
	lvl := p.levels[p.pos]
	if p.pos < len(p.levels)-1 {
		p.pos++
	}
	return lvl, nil
}

// scriptedADC returns codes in order, wrapping around.
type scriptedADC struct {
	codes []uint16
	pos   int
	err   error
	reads int
}

func (a *scriptedADC) ReadRaw(board.Channel) (uint16, error) {
	a.reads++
	if a.err != nil {
		return 0, a.err
	}
	v := a.codes[a.pos%len(a.codes)]
	a.pos++
	return v, nil
}

// queuedADC holds stale codes until flushed, then returns fresh ones.
type queuedADC struct {
	stale   []uint16
	fresh   uint16
	flushes int
}

func (a *queuedADC) Flush() {
	a.flushes++
	a.stale = nil
}

func (a *queuedADC) ReadRaw(board.Channel) (uint16, error) {
	if len(a.stale) > 0 {
		v := a.stale[0]
		a.stale = a.stale[1:]
		return v, nil
	}
	return a.fresh, nil
}

type steppingClock struct {
	t    time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

type linearCal struct{}

func (linearCal) RawToVoltage(raw uint16) uint32 { return uint32(raw) * 2 }
