package datetime

import (
	"errors"
	"testing"
	"time"
)

func TestNewDateRanges(t *testing.T) {
	tests := []struct {
		name             string
		day, month, year uint8
		weekday          Weekday
		wantErr          bool
	}{
		{"valid", 7, 12, 23, Thursday, false},
		{"day zero", 0, 12, 23, Thursday, true},
		{"day 32", 32, 12, 23, Thursday, true},
		{"month zero", 7, 0, 23, Thursday, true},
		{"month 13", 7, 13, 23, Thursday, true},
		{"year 100", 7, 12, 100, Thursday, true},
		{"weekday zero", 7, 12, 23, 0, true},
		{"weekday 8", 7, 12, 23, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDate(tt.day, tt.month, tt.year, tt.weekday)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("expected ErrOutOfRange, got %v", err)
			}
		})
	}
}

func TestNewTimeRanges(t *testing.T) {
	if _, err := NewTime(23, 59); err != nil {
		t.Errorf("23:59: %v", err)
	}
	if _, err := NewTime(24, 0); err == nil {
		t.Error("24:00: expected error")
	}
	if _, err := NewTime(0, 60); err == nil {
		t.Error("00:60: expected error")
	}
	if _, err := NewTimeWithSecond(0, 0, 60); err == nil {
		t.Error("00:00:60: expected error")
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("06:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Time{Hour: 6, Minute: 5}) {
		t.Errorf("got %+v", got)
	}
	for _, bad := range []string{"", "6:05", "06-05", "24:00", "12:60", "ab:cd"} {
		if _, err := ParseTime(bad); err == nil {
			t.Errorf("ParseTime(%q): expected error", bad)
		}
	}
}

func TestTimeMinutesSince(t *testing.T) {
	sunrise := Time{Hour: 6}
	if got := (Time{Hour: 5, Minute: 45}).MinutesSince(sunrise); got != -15 {
		t.Errorf("05:45 - 06:00: got %d, want -15", got)
	}
	if got := (Time{Hour: 6, Minute: 10, Second: 59, HasSecond: true}).MinutesSince(sunrise); got != 10 {
		t.Errorf("06:10:59 - 06:00: got %d, want 10", got)
	}
}

func TestDaysSince(t *testing.T) {
	tests := []struct {
		a, b Date
		want int
	}{
		{Date{Day: 7, Month: 12, Year: 23}, Date{Day: 1, Month: 12, Year: 23}, 6},
		{Date{Day: 1, Month: 3, Year: 24}, Date{Day: 28, Month: 2, Year: 24}, 2},
		{Date{Day: 1, Month: 3, Year: 23}, Date{Day: 28, Month: 2, Year: 23}, 1},
		{Date{Day: 1, Month: 1, Year: 24}, Date{Day: 31, Month: 12, Year: 23}, 1},
		{Date{Day: 1, Month: 1, Year: 0}, Date{Day: 31, Month: 12, Year: 0}, -365},
	}
	for _, tt := range tests {
		if got := tt.a.DaysSince(tt.b); got != tt.want {
			t.Errorf("%s - %s: got %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDatetimeMinutesSince(t *testing.T) {
	base := Datetime{Date: Date{Day: 1, Month: 12, Year: 23, Weekday: Friday}, Time: Time{Hour: 23, Minute: 50}}
	next := Datetime{Date: Date{Day: 2, Month: 12, Year: 23, Weekday: Saturday}, Time: Time{Hour: 0, Minute: 5}}

	got, ok := next.MinutesSince(base)
	if !ok || got != 15 {
		t.Errorf("got (%d, %v), want (15, true)", got, ok)
	}

	got, ok = base.MinutesSince(next)
	if !ok || got != -15 {
		t.Errorf("got (%d, %v), want (-15, true)", got, ok)
	}

	far := Datetime{Date: Date{Day: 31, Month: 12, Year: 23, Weekday: Sunday}}
	if _, ok := far.MinutesSince(base); ok {
		t.Error("expected overflow for a 30 day separation")
	}

	near := Datetime{Date: Date{Day: 21, Month: 12, Year: 23, Weekday: Thursday}}
	if _, ok := near.MinutesSince(base); !ok {
		t.Error("expected no overflow for a 20 day separation")
	}
}

func TestFromTimeAndIn(t *testing.T) {
	src := time.Date(2023, time.December, 10, 21, 34, 56, 0, time.UTC)
	dt, err := FromTime(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Datetime{
		Date: Date{Day: 10, Month: 12, Year: 23, Weekday: Sunday},
		Time: Time{Hour: 21, Minute: 34, Second: 56, HasSecond: true},
	}
	if dt != want {
		t.Errorf("FromTime: got %+v, want %+v", dt, want)
	}
	if back := dt.In(time.UTC); !back.Equal(src) {
		t.Errorf("In: got %v, want %v", back, src)
	}

	if _, err := FromTime(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Error("expected error for 1999")
	}
}

func TestFromTimeWeekdays(t *testing.T) {
	// 2023-12-04 is a Monday.
	for i := 0; i < 7; i++ {
		dt, err := FromTime(time.Date(2023, 12, 4+i, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		if want := Weekday(i + 1); dt.Date.Weekday != want {
			t.Errorf("day %d: got %s, want %s", 4+i, dt.Date.Weekday, want)
		}
	}
}

func TestStrings(t *testing.T) {
	dt := Datetime{Date: Date{Day: 7, Month: 12, Year: 23, Weekday: Thursday}, Time: Time{Hour: 21, Minute: 34}}
	if got := dt.String(); got != "2023-12-07T21:34" {
		t.Errorf("got %q", got)
	}
	dt.Time.Second, dt.Time.HasSecond = 5, true
	if got := dt.String(); got != "2023-12-07T21:34:05" {
		t.Errorf("got %q", got)
	}
	if got := Saturday.String(); got != "Saturday" {
		t.Errorf("got %q", got)
	}
	if !Sunday.IsWeekend() || Friday.IsWeekend() {
		t.Error("IsWeekend mismatch")
	}
}

func TestPhaseStrings(t *testing.T) {
	tests := []struct {
		p    PhaseOfDay
		kind string
		str  string
	}{
		{Default{}, "DEFAULT", "Default day last set None"},
		{Default{LastTriggerDay: 7}, "DEFAULT", "Default day last set 7"},
		{Dawn{ElapsedSinceDawn: 5}, "DAWN", "Dawn since 5 min"},
		{SunRise{ElapsedSinceSunrise: 0}, "SUNRISE", "SunRise since 0 min"},
	}
	for _, tt := range tests {
		if tt.p.Kind() != tt.kind {
			t.Errorf("%T: kind %q, want %q", tt.p, tt.p.Kind(), tt.kind)
		}
		if tt.p.String() != tt.str {
			t.Errorf("%T: string %q, want %q", tt.p, tt.p.String(), tt.str)
		}
	}
}
