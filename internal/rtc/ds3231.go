package rtc

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// DS3231Addr is the fixed I2C address of the chip.
const DS3231Addr = 0x68

// Time keeping registers, read and written as one block from regSeconds.
const (
	regSeconds = 0x00
	regMinutes = 0x01
	regHours   = 0x02
	regDOW     = 0x03
	regDOM     = 0x04
	regMonth   = 0x05
	regYear    = 0x06
	regCount   = 7
)

const (
	flagH12     = 0x40
	flagPM      = 0x20
	flagCentury = 0x80
)

// DS3231 is the Maxim DS3231 clock over any half-duplex connection.
type DS3231 struct {
	c conn.Conn
}

// NewDS3231 wraps an open connection to the chip.
func NewDS3231(c conn.Conn) *DS3231 {
	return &DS3231{c: c}
}

// OpenDS3231 opens the chip at addr on the named I2C bus. Close the returned
// bus when done.
func OpenDS3231(bus string, addr uint16) (*DS3231, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("rtc: host init: %w", err)
	}
	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, nil, fmt.Errorf("rtc: open %s: %w", bus, err)
	}
	return NewDS3231(&i2c.Dev{Addr: addr, Bus: b}), b, nil
}

// Read implements RTC.
func (d *DS3231) Read() (datetime.Datetime, error) {
	var r [regCount]byte
	if err := d.c.Tx([]byte{regSeconds}, r[:]); err != nil {
		return datetime.Datetime{}, fmt.Errorf("rtc: read: %w", err)
	}
	return decodeRegisters(r)
}

// Write implements RTC. The hour is always written in 24-hour mode.
func (d *DS3231) Write(dt datetime.Datetime) error {
	r, err := encodeRegisters(dt)
	if err != nil {
		return err
	}
	if err := d.c.Tx(append([]byte{regSeconds}, r[:]...), nil); err != nil {
		return fmt.Errorf("rtc: write: %w", err)
	}
	return nil
}

func (d *DS3231) String() string {
	return fmt.Sprintf("ds3231(%s)", d.c)
}

func decodeRegisters(r [regCount]byte) (datetime.Datetime, error) {
	var bad bool
	bcd := func(b byte) uint8 {
		if b>>4 > 9 || b&0x0f > 9 {
			bad = true
		}
		return fromBCD(b)
	}

	dt := datetime.Datetime{
		Date: datetime.Date{
			Day:     bcd(r[regDOM] & 0x3f),
			Month:   bcd(r[regMonth] &^ flagCentury),
			Year:    bcd(r[regYear]),
			Weekday: datetime.Weekday(r[regDOW] & 0x07),
		},
		Time: datetime.Time{
			Minute:    bcd(r[regMinutes] & 0x7f),
			Second:    bcd(r[regSeconds] & 0x7f),
			HasSecond: true,
		},
	}

	h := r[regHours]
	if h&flagH12 != 0 {
		hour := bcd(h & 0x1f)
		if hour < 1 || hour > 12 {
			bad = true
		}
		hour %= 12
		if h&flagPM != 0 {
			hour += 12
		}
		dt.Time.Hour = hour
	} else {
		dt.Time.Hour = bcd(h & 0x3f)
	}

	if bad {
		return datetime.Datetime{}, fmt.Errorf("%w: registers % x", ErrInvalidData, r[:])
	}
	if err := dt.Validate(); err != nil {
		return datetime.Datetime{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return dt, nil
}

func encodeRegisters(dt datetime.Datetime) ([regCount]byte, error) {
	var r [regCount]byte
	if err := dt.Validate(); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	sec := uint8(0)
	if dt.Time.HasSecond {
		sec = dt.Time.Second
	}
	r[regSeconds] = toBCD(sec)
	r[regMinutes] = toBCD(dt.Time.Minute)
	r[regHours] = toBCD(dt.Time.Hour)
	r[regDOW] = uint8(dt.Date.Weekday)
	r[regDOM] = toBCD(dt.Date.Day)
	r[regMonth] = toBCD(dt.Date.Month)
	r[regYear] = toBCD(dt.Date.Year)
	return r, nil
}

func toBCD(d uint8) byte {
	return (d/10)<<4 | d%10
}

func fromBCD(b byte) uint8 {
	return (b>>4)*10 + b&0x0f
}
