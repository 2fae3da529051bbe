// Package timer provides the wrapping millisecond counter and the
// down-sampled radio input published by the periodic tick.
//
// The tick (Tick) and the readers (Now, LatestSample) run in different
// goroutines; every access to the shared state goes through a Cell, the
// equivalent of an interrupt-free critical section.
package timer

import "strconv"

const (
	// MillisIncrement is the number of milliseconds added at each tick.
	MillisIncrement = 1
	// SamplePeriodMs is the down-sampling period of the radio input.
	SamplePeriodMs = 25
	// SampleFrequency is the number of samples per second.
	SampleFrequency = 1000 / SamplePeriodMs
	// Max is the largest multiple of SamplePeriodMs that fits in a uint16.
	// The counter wraps after it.
	Max = (0xFFFF / SamplePeriodMs) * SamplePeriodMs
)

// Timer is a wrapping millisecond counter in [0, Max].
type Timer uint16

// Sub returns t - u taking wrapping into account.
// The result is meaningful only if both values are less than Max apart.
func (t Timer) Sub(u Timer) Timer {
	if t >= u {
		return t - u
	}
	return t + (Max - u)
}

// Next returns the timer advanced by one tick, wrapping to 1 (not 0) past Max
// so that a wrapped counter is distinguishable from a cold start.
func (t Timer) Next() Timer {
	n := uint32(t) + MillisIncrement
	if n > Max {
		return 1
	}
	return Timer(n)
}

// OnSampleBoundary reports whether a sample is published at this value.
func (t Timer) OnSampleBoundary() bool {
	return t%SamplePeriodMs == 0
}

func (t Timer) String() string {
	return strconv.Itoa(int(t))
}

// Sample is a down-sampled input level stamped with the timer value at which
// it was published.
type Sample struct {
	At    Timer
	Level bool
}

// Source gives access to the published samples.
// Consumers detect new samples by comparing the At stamp; there is no
// separate "new data" flag.
type Source interface {
	// Now returns the current timer value.
	Now() Timer
	// LatestSample returns the last published sample, if any.
	LatestSample() (Sample, bool)
}
