// Package status provides a thread-safe status tracker for the sunrise clock.
// It is written by the control loop and read by HTTP handlers and MQTT
// lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	RTC         string
	Simulated   bool
}

// Radio is the decoder state.
type Radio struct {
	// LastSymbol is the symbol of the last update, NoSymbol most of the time.
	LastSymbol dcf77.Symbol
	// Frame holds the symbols received since the last minute marker.
	Frame []dcf77.Symbol
	// Samples is the number of samples in the decoder history.
	Samples int
	// LastError is the last decoder error, nil after a decoded minute.
	LastError error
	// LastErrorTime is when LastError was recorded.
	LastErrorTime time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Datetime      *datetime.Datetime
	LastRadioSync *datetime.Datetime
	Quarters      int
	QuartersKnown bool
	Phase         datetime.PhaseOfDay
	Settings      clock.Settings
	Radio         Radio
	RTCError      error

	Button     bool
	Luminosity bool
	Proximity  bool
	Outputs    alarm.Outputs
	Baselined  bool
	Counts     alarm.EventCounts

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:     datetime.Default{},
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update copies the clock and controller state after a loop iteration.
// Called from runLoop on every tick.
func (t *Tracker) Update(clk *clock.Clock, rep clock.Report, ctl *alarm.Controller, at time.Time) {
	quarters, known := clk.QuartersSinceLastSync()
	button, lum, prox := ctl.Inputs()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Datetime = copyDatetime(clk.Datetime)
	t.snap.LastRadioSync = copyDatetime(clk.LastRadioSync)
	t.snap.Quarters, t.snap.QuartersKnown = quarters, known
	t.snap.Phase = clk.Phase
	t.snap.Settings = clk.Settings()
	t.snap.Radio.LastSymbol = clk.LastSymbol

	switch {
	case rep.DecodeErr != nil:
		t.snap.Radio.LastError = rep.DecodeErr
		t.snap.Radio.LastErrorTime = at
	case rep.Synced != nil:
		t.snap.Radio.LastError = nil
	}
	switch {
	case rep.ReadErr != nil:
		t.snap.RTCError = rep.ReadErr
	case rep.WriteErr != nil:
		t.snap.RTCError = rep.WriteErr
	case clk.Datetime != nil:
		t.snap.RTCError = nil
	}

	t.snap.Button, t.snap.Luminosity, t.snap.Proximity = button, lum, prox
	t.snap.Outputs = ctl.Outputs(clk)
	t.snap.Baselined = ctl.IsBaselined()
	t.snap.Counts = ctl.Counts()
}

// SetDecoder records the decoder buffers.
func (t *Tracker) SetDecoder(samples int, frame []dcf77.Symbol) {
	t.mu.Lock()
	t.snap.Radio.Samples = samples
	t.snap.Radio.Frame = append(t.snap.Radio.Frame[:0:0], frame...)
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Radio.Frame = append([]dcf77.Symbol(nil), t.snap.Radio.Frame...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

func copyDatetime(dt *datetime.Datetime) *datetime.Datetime {
	if dt == nil {
		return nil
	}
	v := *dt
	return &v
}
