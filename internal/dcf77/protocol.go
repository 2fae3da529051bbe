package dcf77

import (
	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// Bit positions in a frame.
const (
	bitStartMinute = 0
	bitCEST        = 17
	bitCET         = 18
	bitStartOfTime = 20
)

// weights maps the bits of a field to its value: units in binary, then
// tens in binary scaled by ten.
var weights = [...]uint8{1, 2, 4, 8, 10, 20, 40, 80}

type field struct {
	first, last int
	min, max    uint8
	kind        Kind
}

func (f field) decode(fr *Frame) uint8 {
	var v uint8
	for i := f.first; i <= f.last; i++ {
		if fr[i] {
			v += weights[i-f.first]
		}
	}
	return v
}

func (f field) encode(fr *Frame, v uint8) {
	for i := f.last; i >= f.first; i-- {
		w := weights[i-f.first]
		fr[i] = v >= w
		if fr[i] {
			v -= w
		}
	}
}

var (
	fieldMinute  = field{first: 21, last: 27, min: 0, max: 59, kind: KindMinuteValue}
	fieldHour    = field{first: 29, last: 34, min: 0, max: 23, kind: KindHourValue}
	fieldDay     = field{first: 36, last: 41, min: 1, max: 31, kind: KindDayValue}
	fieldWeekday = field{first: 42, last: 44, min: 1, max: 7, kind: KindWeekdayValue}
	fieldMonth   = field{first: 45, last: 49, min: 1, max: 12, kind: KindMonthValue}
	fieldYear    = field{first: 50, last: 57, min: 0, max: 99, kind: KindYearValue}
)

// parityGroups are checked in order; the last bit of each group makes the
// count of set bits even.
var parityGroups = [...]struct {
	first, parity int
	kind          Kind
}{
	{21, 28, KindMinuteChecksum},
	{29, 35, KindHourChecksum},
	{36, 58, KindDateChecksum},
}

// valueChecks is the order in which field ranges are validated.
var valueChecks = [...]field{fieldWeekday, fieldMinute, fieldHour, fieldDay, fieldMonth, fieldYear}

// Decode validates a frame and returns the minute it announces. The second
// is never set.
func Decode(f Frame) (datetime.Datetime, error) {
	if f[bitStartMinute] {
		return datetime.Datetime{}, &Error{Kind: KindBadStartMinute}
	}
	if !f[bitStartOfTime] {
		return datetime.Datetime{}, &Error{Kind: KindBadStartOfTime}
	}
	for _, g := range parityGroups {
		odd := false
		for i := g.first; i <= g.parity; i++ {
			odd = odd != f[i]
		}
		if odd {
			return datetime.Datetime{}, &Error{Kind: g.kind}
		}
	}
	if f[bitCEST] == f[bitCET] {
		return datetime.Datetime{}, &Error{Kind: KindSummerTime}
	}
	for _, c := range valueChecks {
		if v := c.decode(&f); v < c.min || v > c.max {
			return datetime.Datetime{}, &Error{Kind: c.kind}
		}
	}

	return datetime.Datetime{
		Date: datetime.Date{
			Day:     fieldDay.decode(&f),
			Month:   fieldMonth.decode(&f),
			Year:    fieldYear.decode(&f),
			Weekday: datetime.Weekday(fieldWeekday.decode(&f)),
		},
		Time: datetime.Time{
			Hour:   fieldHour.decode(&f),
			Minute: fieldMinute.decode(&f),
		},
	}, nil
}

// Summer reports whether the frame announces summer time.
func (f Frame) Summer() bool {
	return f[bitCEST]
}

// Encode builds the frame announcing dt. Seconds are ignored. Bits outside
// the time fields (weather, call bit, announcements) are left clear.
func Encode(dt datetime.Datetime, summer bool) Frame {
	var f Frame
	f[bitCEST] = summer
	f[bitCET] = !summer
	f[bitStartOfTime] = true

	fieldMinute.encode(&f, dt.Time.Minute)
	fieldHour.encode(&f, dt.Time.Hour)
	fieldDay.encode(&f, dt.Date.Day)
	fieldWeekday.encode(&f, uint8(dt.Date.Weekday))
	fieldMonth.encode(&f, dt.Date.Month)
	fieldYear.encode(&f, dt.Date.Year)

	for _, g := range parityGroups {
		odd := false
		for i := g.first; i < g.parity; i++ {
			odd = odd != f[i]
		}
		f[g.parity] = odd
	}
	return f
}

// String renders the frame with the same glyphs as the symbols.
func (f Frame) String() string {
	b := make([]byte, len(f))
	for i, v := range f {
		if v {
			b[i] = '#'
		} else {
			b[i] = '_'
		}
	}
	return string(b)
}
