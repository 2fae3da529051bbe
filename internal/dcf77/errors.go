package dcf77

import (
	"fmt"

	"github.com/sweeney/sunrise-clock/internal/timer"
)

// Kind identifies a decoding failure. Every kind is transient: the decoder
// resets and listens again.
type Kind int

const (
	KindMissedPolledValue Kind = iota + 1
	KindLastPeakTooClose
	KindLastPeakTooFar
	KindBadBit
	KindBadStartMinute
	KindBadStartOfTime
	KindMinuteChecksum
	KindHourChecksum
	KindDateChecksum
	KindSummerTime
	KindWeekdayValue
	KindMinuteValue
	KindHourValue
	KindDayValue
	KindMonthValue
	KindYearValue
)

var kindNames = map[Kind]string{
	KindMissedPolledValue: "missed polled value",
	KindLastPeakTooClose:  "last peak too close",
	KindLastPeakTooFar:    "last peak too far",
	KindBadBit:            "bad bit",
	KindBadStartMinute:    "proto:start minute",
	KindBadStartOfTime:    "proto:start time",
	KindMinuteChecksum:    "proto:minute checksum",
	KindHourChecksum:      "proto:hour checksum",
	KindDateChecksum:      "proto:date checksum",
	KindSummerTime:        "proto:summer time",
	KindWeekdayValue:      "proto:weekday value",
	KindMinuteValue:       "proto:minute value",
	KindHourValue:         "proto:hour value",
	KindDayValue:          "proto:day value",
	KindMonthValue:        "proto:month value",
	KindYearValue:         "proto:year value",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Label is a short snake_case name for metrics.
func (k Kind) Label() string {
	switch k {
	case KindMissedPolledValue:
		return "missed_polled_value"
	case KindLastPeakTooClose:
		return "peak_too_close"
	case KindLastPeakTooFar:
		return "peak_too_far"
	case KindBadBit:
		return "bad_bit"
	case KindBadStartMinute, KindBadStartOfTime:
		return "bad_start"
	case KindMinuteChecksum, KindHourChecksum, KindDateChecksum:
		return "checksum"
	case KindSummerTime:
		return "summer_time"
	default:
		return "value"
	}
}

// IsProtocol reports whether the kind comes from frame validation.
func (k Kind) IsProtocol() bool {
	return k >= KindBadStartMinute
}

// Error is a decoding failure. Delta is set for the timing kinds, Count for
// KindBadBit.
type Error struct {
	Kind  Kind
	Delta timer.Timer
	Count uint8
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissedPolledValue, KindLastPeakTooClose, KindLastPeakTooFar:
		return fmt.Sprintf("%s %d", e.Kind, e.Delta)
	case KindBadBit:
		return fmt.Sprintf("%s %d", e.Kind, e.Count)
	default:
		return e.Kind.String()
	}
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrBadBit)
// works whatever the carried value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrMissedPolledValue = &Error{Kind: KindMissedPolledValue}
	ErrLastPeakTooClose  = &Error{Kind: KindLastPeakTooClose}
	ErrLastPeakTooFar    = &Error{Kind: KindLastPeakTooFar}
	ErrBadBit            = &Error{Kind: KindBadBit}
	ErrBadStartMinute    = &Error{Kind: KindBadStartMinute}
	ErrBadStartOfTime    = &Error{Kind: KindBadStartOfTime}
	ErrMinuteChecksum    = &Error{Kind: KindMinuteChecksum}
	ErrHourChecksum      = &Error{Kind: KindHourChecksum}
	ErrDateChecksum      = &Error{Kind: KindDateChecksum}
	ErrSummerTime        = &Error{Kind: KindSummerTime}
	ErrWeekdayValue      = &Error{Kind: KindWeekdayValue}
	ErrMinuteValue       = &Error{Kind: KindMinuteValue}
	ErrHourValue         = &Error{Kind: KindHourValue}
	ErrDayValue          = &Error{Kind: KindDayValue}
	ErrMonthValue        = &Error{Kind: KindMonthValue}
	ErrYearValue         = &Error{Kind: KindYearValue}
)
