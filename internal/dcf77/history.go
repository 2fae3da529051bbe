package dcf77

import (
	"math/bits"

	"github.com/sweeney/sunrise-clock/internal/timer"
)

const (
	// HistorySeconds is the depth of the sample history.
	HistorySeconds = 6
	// HistoryLen is the number of samples correlated against the reference.
	HistoryLen = HistorySeconds * timer.SampleFrequency

	// quietSamples is the expected run of inactive samples at the end of a
	// second: 800 ms of the 1000 ms carry no pulse.
	quietSamples = 800 / timer.SamplePeriodMs

	// The pulse of the second just ended sits at ages 32..39 when the peak
	// is well aligned. Two samples of slack on each side absorb jitter of
	// the phase detection.
	pulseWindowFirst = quietSamples - 2
	pulseWindowLast  = timer.SampleFrequency + 1

	historyWords = (HistoryLen + 63) / 64
)

// referencePattern marks, for each age, whether the inverted sample is
// expected to be set: the last 32 samples of every second are quiet, the
// first 8 may hold the pulse.
var referencePattern = func() (p [historyWords]uint64) {
	for age := 0; age < HistoryLen; age++ {
		if age%timer.SampleFrequency < quietSamples {
			p[age/64] |= 1 << (age % 64)
		}
	}
	return p
}()

// pulseWindow selects the ages counted by ActiveCount.
var pulseWindow = func() uint64 {
	var m uint64
	for age := pulseWindowFirst; age <= pulseWindowLast; age++ {
		m |= 1 << age
	}
	return m
}()

// SampleHistory is a shift register of the last HistoryLen samples.
// Bit i of the register holds the sample of age i, 0 being the newest.
type SampleHistory struct {
	words [historyWords]uint64
	count int
}

// Push shifts level in as the newest sample.
func (h *SampleHistory) Push(level bool) {
	var carry uint64
	if level {
		carry = 1
	}
	for i := range h.words {
		next := h.words[i] >> 63
		h.words[i] = h.words[i]<<1 | carry
		carry = next
	}
	if h.count < HistoryLen {
		h.count++
	}
}

// Len returns the number of samples held, saturating at HistoryLen.
func (h *SampleHistory) Len() int {
	return h.count
}

// Score correlates the inverted samples with the reference pattern.
// There is no score until the history is full.
func (h *SampleHistory) Score() (uint8, bool) {
	if h.count < HistoryLen {
		return 0, false
	}
	n := 0
	for i, w := range h.words {
		n += bits.OnesCount64(^w & referencePattern[i])
	}
	return uint8(n), true
}

// ActiveCount counts the active samples in the pulse window of the second
// that just ended. It is meaningful right after a detected peak.
func (h *SampleHistory) ActiveCount() uint8 {
	return uint8(bits.OnesCount64(h.words[0] & pulseWindow))
}
