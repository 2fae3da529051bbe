package timer

import (
	"context"
	"log"
	"time"
)

// Line reads the instantaneous logical level of an input.
type Line interface {
	Value() (bool, error)
}

// maxCatchUp bounds the ticks replayed after a stall. Past one sample period
// the decoder sees the gap anyway and resynchronises.
const maxCatchUp = 40 * SamplePeriodMs / MillisIncrement

// Sampler drives a HardwareClock from a Line at a fixed tick period.
// It plays the role of the timer interrupt.
//
// Go tickers drop deliveries under load, so each wake-up ticks the clock once
// per whole period elapsed since the previous tick, carrying the remainder.
// The counter then keeps pace with real time.
type Sampler struct {
	clock  *HardwareClock
	line   Line
	period time.Duration
	now    func() time.Time

	last    time.Time
	started bool
	failing bool
}

// NewSampler returns a sampler ticking every MillisIncrement milliseconds.
func NewSampler(clock *HardwareClock, line Line) *Sampler {
	return &Sampler{
		clock:  clock,
		line:   line,
		period: MillisIncrement * time.Millisecond,
		now:    time.Now,
	}
}

// Run ticks until ctx is done.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.Advance(s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Advance(s.now())
		}
	}
}

// Advance reads the line once and ticks the clock for every whole period
// between the last tick and now. It returns the number of ticks. The first
// call only sets the starting point. Run calls it on every wake-up. A failed
// read counts as a low level; only the first failure of a streak is logged.
func (s *Sampler) Advance(now time.Time) int {
	if !s.started {
		s.last, s.started = now, true
		return 0
	}
	n := int(now.Sub(s.last) / s.period)
	if n <= 0 {
		return 0
	}
	if n > maxCatchUp {
		n = maxCatchUp
		s.last = now
	} else {
		s.last = s.last.Add(time.Duration(n) * s.period)
	}

	level, err := s.line.Value()
	if err != nil {
		if !s.failing {
			log.Printf("sampler: read radio line: %v", err)
		}
		s.failing = true
		level = false
	} else {
		s.failing = false
	}
	for i := 0; i < n; i++ {
		s.clock.Tick(level)
	}
	return n
}
