package timer

// hwState is everything the tick mutates.
type hwState struct {
	now    Timer
	sample Sample
	has    bool
	// vote is incremented for logical high levels and decremented for low
	// levels, then reset at each sample boundary. It holds at most
	// ticksPerSample votes.
	vote int8
}

const ticksPerSample = SamplePeriodMs / MillisIncrement

// vote must not overflow within a sample period.
var _ [127 - ticksPerSample]struct{}

// HardwareClock is the tick-driven counter and majority-vote sampler.
// Tick is meant to be called from exactly one goroutine at a fixed period of
// MillisIncrement milliseconds.
type HardwareClock struct {
	state Cell[hwState]
}

// NewHardwareClock returns a clock at timer 0 with no published sample.
func NewHardwareClock() *HardwareClock {
	return &HardwareClock{}
}

// Tick advances the counter, records a vote for level and, on a sample
// boundary, publishes the majority of the votes of the elapsed period.
func (h *HardwareClock) Tick(level bool) {
	h.state.Update(func(s *hwState) {
		s.now = s.now.Next()
		if level {
			s.vote++
		} else {
			s.vote--
		}
		if s.now.OnSampleBoundary() {
			s.sample = Sample{At: s.now, Level: s.vote > 0}
			s.has = true
			s.vote = 0
		}
	})
}

// Now implements Source.
func (h *HardwareClock) Now() Timer {
	return h.state.Get().now
}

// LatestSample implements Source.
func (h *HardwareClock) LatestSample() (Sample, bool) {
	s := h.state.Get()
	return s.sample, s.has
}

// ManualSource is a Source driven by hand, for tests and simulation.
// It publishes one sample per Push, advancing by exactly one period.
type ManualSource struct {
	state Cell[hwState]
}

// NewManualSource returns a source whose first Push publishes at start+period.
func NewManualSource(start Timer) *ManualSource {
	m := &ManualSource{}
	m.state.Set(hwState{now: start})
	return m
}

// Push advances the source by one sample period and publishes level.
func (m *ManualSource) Push(level bool) Timer {
	return m.PushAfter(1, level)
}

// PushAfter advances the source by periods sample periods (skipping the
// intermediate ones) and publishes level.
func (m *ManualSource) PushAfter(periods int, level bool) Timer {
	var at Timer
	m.state.Update(func(s *hwState) {
		for i := 0; i < periods*SamplePeriodMs; i++ {
			s.now = s.now.Next()
		}
		s.sample = Sample{At: s.now, Level: level}
		s.has = true
		at = s.now
	})
	return at
}

// Now implements Source.
func (m *ManualSource) Now() Timer {
	return m.state.Get().now
}

// LatestSample implements Source.
func (m *ManualSource) LatestSample() (Sample, bool) {
	s := m.state.Get()
	return s.sample, s.has
}
