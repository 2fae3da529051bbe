// Package alarm turns the phase of the day into user-facing behaviour:
// acknowledgement rules, the LED strip ramp, the buzzer and the display
// intensity, plus the events published for every transition.
// It has no hardware or network dependency; time is always passed in.
package alarm

import (
	"fmt"
	"time"

	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// EventType identifies an event.
type EventType string

const (
	EventDawn      EventType = "DAWN"
	EventSunrise   EventType = "SUNRISE"
	EventDefault   EventType = "DEFAULT"
	EventAck       EventType = "ACK"
	EventRadioSync EventType = "RADIO_SYNC"
)

// AckReason tells what acknowledged the alarm.
type AckReason string

const (
	AckAuto      AckReason = "auto"
	AckProximity AckReason = "proximity"
	AckManual    AckReason = "manual"
)

// Event is a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	// Phase is the phase of the day after the event.
	Phase datetime.PhaseOfDay
	// Reason is set for EventAck.
	Reason AckReason
	// Datetime is the decoded time for EventRadioSync, the RTC time
	// otherwise (nil when unknown).
	Datetime *datetime.Datetime
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Dawn      int
	Sunrise   int
	Default   int
	Ack       int
	RadioSync int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// Input is one reading of the user and environment inputs, already mapped
// to logical levels.
type Input struct {
	Button     bool
	Luminosity bool
	Proximity  bool
	Time       time.Time
}

// Color is an LED strip colour.
type Color struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

// Sun is the yellowish colour of the simulated sun at intensity.
func Sun(intensity uint8) Color {
	return Color{Red: intensity, Green: intensity, Blue: intensity / 4}
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// Intensity is the brightness of the display.
type Intensity string

const (
	IntensityOff    Intensity = "OFF"
	IntensityDim    Intensity = "DIM"
	IntensityBright Intensity = "BRIGHT"
)

// Outputs is the desired state of the actuators.
type Outputs struct {
	// LED is the strip colour, nil when off.
	LED *Color
	// LEDForced is set when LED comes from a manual override.
	LEDForced bool
	Buzzer    bool
	Display   Intensity
}
