package dcf77

import "github.com/sweeney/sunrise-clock/internal/timer"

// peakMargin lifts the threshold above the moving average so that ripples
// of the correlation on a noisy signal are not taken for peaks.
const peakMargin = 4

// PhaseDetector finds the start of each second in the score stream.
// A peak is the first score, since the threshold was last crossed, that is
// lower than its predecessor.
type PhaseDetector struct {
	scores     [timer.SampleFrequency]uint8
	n          int
	next       int
	prevHeight uint8
	latched    bool
}

// Detect records score and reports whether a peak was just passed.
// It never reports a peak before one second of scores is buffered.
func (p *PhaseDetector) Detect(score uint8) bool {
	p.scores[p.next] = score
	p.next = (p.next + 1) % len(p.scores)
	if p.n < len(p.scores) {
		p.n++
		if p.n < len(p.scores) {
			return false
		}
	}

	sum := 0
	for _, s := range p.scores {
		sum += int(s)
	}
	threshold := sum/len(p.scores) + peakMargin

	var height uint8
	if int(score) > threshold {
		height = uint8(int(score) - threshold)
	}

	peak := !p.latched && height < p.prevHeight
	if peak {
		p.latched = true
	}
	if height == 0 {
		p.latched = false
	}
	p.prevHeight = height
	return peak
}
