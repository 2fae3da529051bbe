package dcf77

import (
	"time"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// Pulse lengths of the transmitter.
const (
	pulseHigh = 200 * time.Millisecond
	pulseLow  = 100 * time.Millisecond
)

// Synth generates an ideal receiver output. Elapsed time 0 is the start of
// a minute whose frame announces Start plus one minute, as the transmitter
// announces the minute that follows the marker.
type Synth struct {
	Start  datetime.Datetime
	Summer bool

	minute int
	frame  Frame
	cached bool
}

// NewSynth returns a generator whose first complete frame announces the
// minute after start.
func NewSynth(start datetime.Datetime, summer bool) *Synth {
	return &Synth{Start: start, Summer: summer}
}

// Level returns the logical level of the receiver output at elapsed.
func (s *Synth) Level(elapsed time.Duration) bool {
	if elapsed < 0 {
		return false
	}
	minute := int(elapsed / time.Minute)
	sec := int(elapsed%time.Minute) / int(time.Second)
	phase := elapsed % time.Second
	if sec >= FrameLen {
		return false
	}
	f := s.frameFor(minute)
	if f[sec] {
		return phase < pulseHigh
	}
	return phase < pulseLow
}

// Announced returns the datetime carried by the frame sent during minute n.
func (s *Synth) Announced(n int) datetime.Datetime {
	t := s.Start.In(time.UTC).Add(time.Duration(n+1) * time.Minute)
	dt, _ := datetime.FromTime(t)
	dt.Time.Second, dt.Time.HasSecond = 0, false
	return dt
}

func (s *Synth) frameFor(minute int) Frame {
	if !s.cached || s.minute != minute {
		s.frame = Encode(s.Announced(minute), s.Summer)
		s.minute, s.cached = minute, true
	}
	return s.frame
}

// SynthLine adapts a Synth to a timer.Line driven by the wall clock.
type SynthLine struct {
	synth *Synth
	epoch time.Time
	now   func() time.Time
}

// NewSynthLine returns a line whose output starts a minute at epoch.
func NewSynthLine(s *Synth, epoch time.Time, now func() time.Time) *SynthLine {
	return &SynthLine{synth: s, epoch: epoch, now: now}
}

// Value implements timer.Line.
func (l *SynthLine) Value() (bool, error) {
	return l.synth.Level(l.now().Sub(l.epoch)), nil
}
