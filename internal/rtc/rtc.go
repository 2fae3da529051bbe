// Package rtc provides the battery-backed real-time clock: a DS3231 on
// I2C, the host clock, and a fake for tests.
package rtc

import (
	"errors"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// ErrInvalidData is returned when the chip holds or is given values that do
// not form a valid datetime.
var ErrInvalidData = errors.New("rtc: invalid data")

// RTC reads and sets the current date and time.
type RTC interface {
	// Read returns the current datetime, seconds included.
	Read() (datetime.Datetime, error)
	// Write sets the clock. A datetime without second sets second 0.
	Write(dt datetime.Datetime) error
}
