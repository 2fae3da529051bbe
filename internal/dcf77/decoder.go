// Package dcf77 recovers date and time from the DCF77 longwave signal.
//
// The receiver output is sampled every 25 ms. A correlation of the last six
// seconds of samples with the expected envelope locates the start of each
// second; the pulse length of the second just ended gives one symbol; a
// minute of symbols anchored on the minute marker is a frame, validated and
// decoded into a datetime.
//
// Any anomaly discards everything and the decoder listens again from
// scratch.
package dcf77

import (
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/timer"
)

// Accepted spacing between two peaks, in milliseconds.
const (
	MinPeakSpacing timer.Timer = 900
	MaxPeakSpacing timer.Timer = 1100
)

// Step is the outcome of one Run.
type Step struct {
	// Symbol is the symbol of the second that just ended, NoSymbol when no
	// second boundary was detected.
	Symbol Symbol
	// Datetime is set when a minute was decoded.
	Datetime *datetime.Datetime
}

// Decoder consumes samples from a timer.Source.
type Decoder struct {
	src timer.Source

	lastAt   timer.Timer
	hasLast  bool
	history  SampleHistory
	phase    PhaseDetector
	lastPeak timer.Timer
	hasPeak  bool
	frames   FrameAssembler
}

// New returns a decoder reading samples from src.
func New(src timer.Source) *Decoder {
	return &Decoder{src: src}
}

// Run processes the latest sample if it was not seen yet. It does nothing
// when the sample is stale. On error the decoder state is reset.
func (d *Decoder) Run() (Step, error) {
	s, ok := d.src.LatestSample()
	if !ok {
		return Step{}, nil
	}
	step, err := d.process(s)
	if err != nil {
		d.Reset()
		return Step{}, err
	}
	return step, nil
}

func (d *Decoder) process(s timer.Sample) (Step, error) {
	if d.hasLast {
		diff := s.At.Sub(d.lastAt)
		if diff < timer.SamplePeriodMs {
			return Step{}, nil
		}
		if diff > timer.SamplePeriodMs {
			return Step{}, &Error{Kind: KindMissedPolledValue, Delta: diff}
		}
	}
	d.lastAt, d.hasLast = s.At, true
	d.history.Push(s.Level)

	score, ok := d.history.Score()
	if !ok || !d.phase.Detect(score) {
		return Step{}, nil
	}

	if d.hasPeak {
		diff := s.At.Sub(d.lastPeak)
		if diff < MinPeakSpacing {
			return Step{}, &Error{Kind: KindLastPeakTooClose, Delta: diff}
		}
		if diff > MaxPeakSpacing {
			return Step{}, &Error{Kind: KindLastPeakTooFar, Delta: diff}
		}
	}
	d.lastPeak, d.hasPeak = s.At, true

	sym, err := Classify(d.history.ActiveCount())
	if err != nil {
		return Step{}, err
	}
	d.frames.Push(sym)

	step := Step{Symbol: sym}
	f, ok := d.frames.Extract()
	if !ok {
		return step, nil
	}
	dt, err := Decode(f)
	if err != nil {
		return Step{}, err
	}
	step.Datetime = &dt
	return step, nil
}

// Reset discards all state.
func (d *Decoder) Reset() {
	src := d.src
	*d = Decoder{src: src}
}

// Samples returns the number of samples in the history.
func (d *Decoder) Samples() int {
	return d.history.Len()
}

// Pending returns the symbols buffered since the last minute marker.
func (d *Decoder) Pending() []Symbol {
	return d.frames.Symbols()
}
