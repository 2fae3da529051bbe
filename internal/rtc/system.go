package rtc

import (
	"sync"
	"time"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// System is a clock backed by the host clock. Writes do not touch the host;
// they shift an offset applied to later reads.
type System struct {
	loc *time.Location
	now func() time.Time

	mu     sync.Mutex
	offset time.Duration
}

// NewSystem returns a clock reading the host time in loc.
func NewSystem(loc *time.Location) *System {
	return &System{loc: loc, now: time.Now}
}

// Read implements RTC.
func (s *System) Read() (datetime.Datetime, error) {
	s.mu.Lock()
	t := s.now().Add(s.offset)
	s.mu.Unlock()
	return datetime.FromTime(t.In(s.loc))
}

// Write implements RTC.
func (s *System) Write(dt datetime.Datetime) error {
	if err := dt.Validate(); err != nil {
		return ErrInvalidData
	}
	target := dt.In(s.loc)
	s.mu.Lock()
	s.offset = target.Sub(s.now())
	s.mu.Unlock()
	return nil
}

// Offset returns the shift applied to the host time.
func (s *System) Offset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}
