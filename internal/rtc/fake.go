package rtc

import (
	"sync"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// Fake is an in-memory RTC for tests.
type Fake struct {
	mu       sync.Mutex
	current  datetime.Datetime
	readErr  error
	writeErr error
	writes   []datetime.Datetime
}

// NewFake returns a fake holding dt.
func NewFake(dt datetime.Datetime) *Fake {
	return &Fake{current: dt}
}

// Read implements RTC.
func (f *Fake) Read() (datetime.Datetime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return datetime.Datetime{}, f.readErr
	}
	return f.current, nil
}

// Write implements RTC. Like the chip, a missing second is stored as 0.
func (f *Fake) Write(dt datetime.Datetime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, dt)
	if f.writeErr != nil {
		return f.writeErr
	}
	if !dt.Time.HasSecond {
		dt.Time.Second, dt.Time.HasSecond = 0, true
	}
	f.current = dt
	return nil
}

// Set replaces the held datetime.
func (f *Fake) Set(dt datetime.Datetime) {
	f.mu.Lock()
	f.current = dt
	f.mu.Unlock()
}

// SetReadError makes subsequent reads fail with err (nil to clear).
func (f *Fake) SetReadError(err error) {
	f.mu.Lock()
	f.readErr = err
	f.mu.Unlock()
}

// SetWriteError makes subsequent writes fail with err (nil to clear).
func (f *Fake) SetWriteError(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

// Writes returns every attempted write, failed ones included.
func (f *Fake) Writes() []datetime.Datetime {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]datetime.Datetime, len(f.writes))
	copy(out, f.writes)
	return out
}
