package dcf77

// Symbol is one second of the signal.
type Symbol uint8

const (
	// NoSymbol is the zero value: no second boundary in this step.
	NoSymbol Symbol = iota
	// High is a 200 ms pulse.
	High
	// Low is a 100 ms pulse.
	Low
	// MinuteEnd is the missing pulse of the last second of a minute.
	MinuteEnd
)

func (s Symbol) String() string {
	switch s {
	case High:
		return "#"
	case Low:
		return "_"
	case MinuteEnd:
		return "|"
	default:
		return ""
	}
}

// Label is a lowercase name for metrics and JSON.
func (s Symbol) Label() string {
	switch s {
	case High:
		return "high"
	case Low:
		return "low"
	case MinuteEnd:
		return "minute_end"
	default:
		return "none"
	}
}

// Classify maps the active sample count of a second to a symbol. A 200 ms
// pulse gives 8 samples and a 100 ms pulse gives 4; the bands leave room for
// jitter.
func Classify(count uint8) (Symbol, error) {
	switch {
	case count <= 2:
		return MinuteEnd, nil
	case count <= 6:
		return Low, nil
	case count <= 10:
		return High, nil
	default:
		return NoSymbol, &Error{Kind: KindBadBit, Count: count}
	}
}
