package dcf77

// FrameLen is the number of data bits in a minute.
const FrameLen = 59

const assemblerCap = FrameLen + 1

// Frame is the data bits of one minute, bit 0 first.
type Frame [FrameLen]bool

// FrameAssembler accumulates symbols, anchored on the last minute marker.
type FrameAssembler struct {
	buf  [assemblerCap]Symbol
	head int
	n    int
}

// Push appends s, dropping the oldest symbol when full, then drops every
// symbol before the first minute marker. Without a marker the buffer is
// emptied.
func (a *FrameAssembler) Push(s Symbol) {
	if a.n == len(a.buf) {
		a.pop()
	}
	a.buf[(a.head+a.n)%len(a.buf)] = s
	a.n++

	for a.n > 0 && a.at(0) != MinuteEnd {
		a.pop()
	}
}

// Len returns the number of buffered symbols.
func (a *FrameAssembler) Len() int {
	return a.n
}

// Reset empties the buffer.
func (a *FrameAssembler) Reset() {
	a.head, a.n = 0, 0
}

// Symbols returns the buffered symbols, oldest first.
func (a *FrameAssembler) Symbols() []Symbol {
	out := make([]Symbol, a.n)
	for i := range out {
		out[i] = a.at(i)
	}
	return out
}

// Extract returns the frame following the marker once a full minute is
// buffered. The consumed symbols are removed. A marker inside the minute
// aborts the extraction and becomes the new anchor.
func (a *FrameAssembler) Extract() (Frame, bool) {
	var f Frame
	if a.n < assemblerCap || a.at(0) != MinuteEnd {
		return f, false
	}
	for i := 1; i < assemblerCap; i++ {
		if a.at(i) == MinuteEnd {
			a.discard(i)
			return Frame{}, false
		}
		f[i-1] = a.at(i) == High
	}
	a.Reset()
	return f, true
}

func (a *FrameAssembler) at(i int) Symbol {
	return a.buf[(a.head+i)%len(a.buf)]
}

func (a *FrameAssembler) pop() {
	a.head = (a.head + 1) % len(a.buf)
	a.n--
}

func (a *FrameAssembler) discard(k int) {
	for ; k > 0; k-- {
		a.pop()
	}
}
