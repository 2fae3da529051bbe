// Package datetime holds the calendar values exchanged between the radio
// decoder, the real-time clock and the alarm: a 2-digit-year date, a time of
// day with an optional second, and the phase of the day.
package datetime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrOutOfRange is returned when a field is outside its valid range.
var ErrOutOfRange = errors.New("datetime: field out of range")

// Weekday is the ISO day of the week, Monday = 1 ... Sunday = 7.
type Weekday uint8

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayFromOrdinal converts 1..7 to a Weekday.
func WeekdayFromOrdinal(n uint8) (Weekday, error) {
	if n < 1 || n > 7 {
		return 0, fmt.Errorf("%w: weekday %d", ErrOutOfRange, n)
	}
	return Weekday(n), nil
}

// IsWeekend reports whether the day is Saturday or Sunday.
func (w Weekday) IsWeekend() bool {
	return w == Saturday || w == Sunday
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return fmt.Sprintf("Weekday(%d)", uint8(w))
	}
	return weekdayNames[w]
}

// Date is a calendar date with a 2-digit year (2000-2099).
type Date struct {
	Day     uint8
	Month   uint8
	Year    uint8
	Weekday Weekday
}

// NewDate validates and builds a Date.
func NewDate(day, month, year uint8, weekday Weekday) (Date, error) {
	d := Date{Day: day, Month: month, Year: year, Weekday: weekday}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

// Validate checks every field range.
func (d Date) Validate() error {
	switch {
	case d.Day < 1 || d.Day > 31:
		return fmt.Errorf("%w: day %d", ErrOutOfRange, d.Day)
	case d.Month < 1 || d.Month > 12:
		return fmt.Errorf("%w: month %d", ErrOutOfRange, d.Month)
	case d.Year > 99:
		return fmt.Errorf("%w: year %d", ErrOutOfRange, d.Year)
	case d.Weekday < Monday || d.Weekday > Sunday:
		return fmt.Errorf("%w: weekday %d", ErrOutOfRange, d.Weekday)
	}
	return nil
}

// fixed returns the number of days since 2000-01-01.
func (d Date) fixed() int {
	t := time.Date(2000+int(d.Year), time.Month(d.Month), int(d.Day), 0, 0, 0, 0, time.UTC)
	return int(t.Unix()/86400) - epoch2000
}

// epoch2000 is 2000-01-01 in days since the Unix epoch.
const epoch2000 = 10957

// DaysSince returns the number of days from u to d.
func (d Date) DaysSince(u Date) int {
	return d.fixed() - u.fixed()
}

func (d Date) String() string {
	return fmt.Sprintf("20%02d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time is a time of day. Second is meaningful only when HasSecond is set:
// radio frames carry minutes only.
type Time struct {
	Hour      uint8
	Minute    uint8
	Second    uint8
	HasSecond bool
}

// NewTime builds a Time without seconds.
func NewTime(hour, minute uint8) (Time, error) {
	t := Time{Hour: hour, Minute: minute}
	if err := t.Validate(); err != nil {
		return Time{}, err
	}
	return t, nil
}

// NewTimeWithSecond builds a Time with seconds.
func NewTimeWithSecond(hour, minute, second uint8) (Time, error) {
	t := Time{Hour: hour, Minute: minute, Second: second, HasSecond: true}
	if err := t.Validate(); err != nil {
		return Time{}, err
	}
	return t, nil
}

// ParseTime parses "HH:MM".
func ParseTime(s string) (Time, error) {
	if len(s) != 5 || s[2] != ':' {
		return Time{}, fmt.Errorf("datetime: bad time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return Time{}, fmt.Errorf("datetime: bad hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return Time{}, fmt.Errorf("datetime: bad minute in %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Time{}, fmt.Errorf("%w: time %q", ErrOutOfRange, s)
	}
	return Time{Hour: uint8(h), Minute: uint8(m)}, nil
}

// Validate checks every field range.
func (t Time) Validate() error {
	switch {
	case t.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrOutOfRange, t.Hour)
	case t.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrOutOfRange, t.Minute)
	case t.HasSecond && t.Second > 59:
		return fmt.Errorf("%w: second %d", ErrOutOfRange, t.Second)
	}
	return nil
}

// MinutesSince returns the number of minutes from u to t, ignoring seconds.
// It is negative when t is earlier in the day than u.
func (t Time) MinutesSince(u Time) int {
	return (60*int(t.Hour) + int(t.Minute)) - (60*int(u.Hour) + int(u.Minute))
}

func (t Time) String() string {
	if t.HasSecond {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Datetime is a Date and a Time.
type Datetime struct {
	Date Date
	Time Time
}

// Validate checks both parts.
func (dt Datetime) Validate() error {
	if err := dt.Date.Validate(); err != nil {
		return err
	}
	return dt.Time.Validate()
}

// MinutesSince returns the number of minutes from u to dt. The second return
// is false when the difference does not fit in an int16, which bounds the
// separation to about 22 days.
func (dt Datetime) MinutesSince(u Datetime) (int, bool) {
	days := dt.Date.DaysSince(u.Date)
	if days > math.MaxInt16/(24*60) || days < math.MinInt16/(24*60) {
		return 0, false
	}
	minutes := days*24*60 + dt.Time.MinutesSince(u.Time)
	if minutes > math.MaxInt16 || minutes < math.MinInt16 {
		return 0, false
	}
	return minutes, true
}

// FromTime converts t, already in the wanted location, to a Datetime with
// seconds. Years outside 2000-2099 are rejected.
func FromTime(t time.Time) (Datetime, error) {
	if t.Year() < 2000 || t.Year() > 2099 {
		return Datetime{}, fmt.Errorf("%w: year %d", ErrOutOfRange, t.Year())
	}
	wd := Weekday(t.Weekday())
	if t.Weekday() == time.Sunday {
		wd = Sunday
	}
	return Datetime{
		Date: Date{
			Day:     uint8(t.Day()),
			Month:   uint8(t.Month()),
			Year:    uint8(t.Year() - 2000),
			Weekday: wd,
		},
		Time: Time{
			Hour:      uint8(t.Hour()),
			Minute:    uint8(t.Minute()),
			Second:    uint8(t.Second()),
			HasSecond: true,
		},
	}, nil
}

// In converts dt to a time.Time in loc. A missing second is taken as zero.
func (dt Datetime) In(loc *time.Location) time.Time {
	sec := 0
	if dt.Time.HasSecond {
		sec = int(dt.Time.Second)
	}
	return time.Date(2000+int(dt.Date.Year), time.Month(dt.Date.Month), int(dt.Date.Day),
		int(dt.Time.Hour), int(dt.Time.Minute), sec, 0, loc)
}

func (dt Datetime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}
