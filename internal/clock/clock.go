// Package clock merges the radio time with the real-time clock and runs the
// alarm phase of the day.
//
// A Clock is owned by the control loop: it is not safe for concurrent use.
package clock

import (
	"math"

	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
	"github.com/sweeney/sunrise-clock/internal/rtc"
)

// Decoder yields radio datetimes. *dcf77.Decoder implements it.
type Decoder interface {
	Run() (dcf77.Step, error)
}

// Settings configure the alarm. A nil field disables what it configures.
type Settings struct {
	DawnDuration   *uint8
	WeekSunrise    *datetime.Time
	WeekendSunrise *datetime.Time
}

// Report describes what happened during one Update.
type Report struct {
	// Symbol is the radio symbol of the second that just ended, if any.
	Symbol dcf77.Symbol
	// Synced is the decoded radio datetime, if a minute was decoded.
	Synced *datetime.Datetime
	// DecodeErr is the decoder error; the decoder has already reset.
	DecodeErr error
	// WriteErr is the failed RTC write after a sync, ignored otherwise.
	WriteErr error
	// ReadErr is the failed RTC read; the current time is then unknown.
	ReadErr error
	// PhaseChanged is set when the phase kind changed.
	PhaseChanged bool
}

// Clock is the time arbiter.
type Clock struct {
	// Datetime is the current time read from the RTC, nil when unknown.
	Datetime *datetime.Datetime
	// LastRadioSync is the last decoded radio datetime.
	LastRadioSync *datetime.Datetime
	// LastSymbol is the symbol received during the last Update.
	LastSymbol dcf77.Symbol
	// Phase is the phase of the day.
	Phase datetime.PhaseOfDay

	settings Settings
	decoder  Decoder
	rtc      rtc.RTC
}

// New returns a clock in the Default phase with an unknown time.
func New(dec Decoder, r rtc.RTC, s Settings) *Clock {
	return &Clock{
		Phase:    datetime.Default{},
		settings: s,
		decoder:  dec,
		rtc:      r,
	}
}

// Update runs the decoder, writes a decoded datetime to the RTC, reads the
// RTC back and updates the phase of the day.
func (c *Clock) Update() Report {
	var rep Report

	step, err := c.decoder.Run()
	if err != nil {
		rep.DecodeErr = err
	}
	c.LastSymbol = step.Symbol
	rep.Symbol = step.Symbol

	if step.Datetime != nil {
		synced := *step.Datetime
		c.LastRadioSync = &synced
		rep.Synced = &synced
		rep.WriteErr = c.rtc.Write(synced)
	}

	// Always read back, so the time in use has the RTC resolution.
	now, err := c.rtc.Read()
	if err != nil {
		c.Datetime = nil
		rep.ReadErr = err
		return rep
	}
	c.Datetime = &now

	before := c.Phase.Kind()
	c.updatePhase(now)
	rep.PhaseChanged = c.Phase.Kind() != before
	return rep
}

func (c *Clock) updatePhase(now datetime.Datetime) {
	if d, ok := c.Phase.(datetime.Default); ok && d.LastTriggerDay == now.Date.Day {
		return
	}

	sunrise := c.settings.WeekSunrise
	if now.Date.Weekday.IsWeekend() {
		sunrise = c.settings.WeekendSunrise
	}
	if sunrise == nil {
		return
	}

	elapsed := now.Time.MinutesSince(*sunrise)
	if elapsed >= 0 {
		c.Phase = datetime.SunRise{ElapsedSinceSunrise: saturate(elapsed)}
		return
	}
	if c.settings.DawnDuration == nil {
		return
	}
	if sinceDawn := elapsed + int(*c.settings.DawnDuration); sinceDawn >= 0 {
		c.Phase = datetime.Dawn{ElapsedSinceDawn: saturate(sinceDawn)}
	}
}

func saturate(m int) uint8 {
	if m > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(m)
}

// AckSunrise returns to the Default phase, remembering today so that the
// alarm does not trigger again until tomorrow.
func (c *Clock) AckSunrise() {
	var day uint8
	if c.Datetime != nil {
		day = c.Datetime.Date.Day
	}
	c.Phase = datetime.Default{LastTriggerDay: day}
}

// QuartersSinceLastSync returns the number of whole quarters of an hour
// since the last radio sync. It is false when either time is unknown or
// they are too far apart.
func (c *Clock) QuartersSinceLastSync() (int, bool) {
	if c.Datetime == nil || c.LastRadioSync == nil {
		return 0, false
	}
	diff, ok := c.Datetime.MinutesSince(*c.LastRadioSync)
	if !ok {
		return 0, false
	}
	if diff < 0 {
		diff = 0
	}
	return diff / 15, true
}

// Settings returns the alarm settings.
func (c *Clock) Settings() Settings {
	return c.settings
}

// SetDawnDuration changes the dawn duration; the phase is kept.
func (c *Clock) SetDawnDuration(minutes *uint8) {
	c.settings.DawnDuration = minutes
}

// SetWeekSunrise changes the week sunrise and resets the phase.
func (c *Clock) SetWeekSunrise(t *datetime.Time) {
	c.settings.WeekSunrise = t
	c.Phase = datetime.Default{}
}

// SetWeekendSunrise changes the weekend sunrise and resets the phase.
func (c *Clock) SetWeekendSunrise(t *datetime.Time) {
	c.settings.WeekendSunrise = t
	c.Phase = datetime.Default{}
}
