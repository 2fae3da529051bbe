package alarm

import (
	"time"

	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// Config holds the controller settings.
type Config struct {
	// Debounce is how long an input must hold a level to be accepted.
	Debounce time.Duration
	// AutoAckMinutes acknowledges the sunrise once it has lasted longer.
	AutoAckMinutes uint8
	// LEDMax is the LED intensity at sunrise.
	LEDMax uint8
}

// channelState tracks debounce state for a single input.
type channelState struct {
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince time.Time
	baselined    bool
}

// Controller applies the alarm rules after each clock update.
type Controller struct {
	cfg Config

	button     channelState
	luminosity channelState
	proximity  channelState
	baselined  bool

	lastKind      string
	forced        *Color
	startTime     time.Time
	lastHeartbeat time.Time
	counts        EventCounts
}

// NewController creates a controller. The startTime is used for calculating
// uptime in heartbeat events.
func NewController(cfg Config, startTime time.Time) *Controller {
	return &Controller{
		cfg:           cfg,
		lastKind:      datetime.Default{}.Kind(),
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes the clock after its update and a new input sample, applies
// the acknowledgement rules and returns the events to publish.
func (c *Controller) Process(clk *clock.Clock, rep clock.Report, in Input) []Event {
	c.processInput(&c.button, in.Button, in.Time)
	c.processInput(&c.luminosity, in.Luminosity, in.Time)
	c.processInput(&c.proximity, in.Proximity, in.Time)
	if !c.baselined && c.button.baselined && c.luminosity.baselined && c.proximity.baselined {
		c.baselined = true
	}

	var events []Event
	if rep.Synced != nil {
		synced := *rep.Synced
		events = append(events, c.record(Event{
			Timestamp: in.Time,
			Type:      EventRadioSync,
			Phase:     clk.Phase,
			Datetime:  &synced,
		}))
	}

	if kind := clk.Phase.Kind(); kind != c.lastKind {
		c.lastKind = kind
		events = append(events, c.record(Event{
			Timestamp: in.Time,
			Type:      EventType(kind),
			Phase:     clk.Phase,
			Datetime:  clk.Datetime,
		}))
	}

	if sr, ok := clk.Phase.(datetime.SunRise); ok {
		switch {
		case c.proximity.stable:
			events = append(events, c.Ack(clk, in.Time, AckProximity)...)
		case sr.ElapsedSinceSunrise > c.cfg.AutoAckMinutes:
			events = append(events, c.Ack(clk, in.Time, AckAuto)...)
		}
	}
	return events
}

// Ack acknowledges the alarm on the clock.
func (c *Controller) Ack(clk *clock.Clock, now time.Time, reason AckReason) []Event {
	clk.AckSunrise()
	c.lastKind = clk.Phase.Kind()
	return []Event{c.record(Event{
		Timestamp: now,
		Type:      EventAck,
		Phase:     clk.Phase,
		Reason:    reason,
		Datetime:  clk.Datetime,
	})}
}

func (c *Controller) record(e Event) Event {
	switch e.Type {
	case EventDawn:
		c.counts.Dawn++
	case EventSunrise:
		c.counts.Sunrise++
	case EventDefault:
		c.counts.Default++
	case EventAck:
		c.counts.Ack++
	case EventRadioSync:
		c.counts.RadioSync++
	}
	return e
}

// processInput handles debounce logic for a single input. Until the input
// is baselined its stable level stays inactive.
func (c *Controller) processInput(ch *channelState, level bool, now time.Time) {
	if level == ch.stable && ch.baselined {
		ch.hasPending = false
		return
	}
	if !ch.hasPending || ch.pending != level {
		ch.pending = level
		ch.hasPending = true
		ch.pendingSince = now
		return
	}
	if now.Sub(ch.pendingSince) >= c.cfg.Debounce {
		ch.stable = level
		ch.baselined = true
		ch.hasPending = false
	}
}

// Outputs computes the actuator state for the clock's phase.
func (c *Controller) Outputs(clk *clock.Clock) Outputs {
	var out Outputs

	switch p := clk.Phase.(type) {
	case datetime.Dawn:
		if d := clk.Settings().DawnDuration; d != nil && *d > 0 {
			level := int(p.ElapsedSinceDawn) * int(c.cfg.LEDMax) / int(*d)
			if level > int(c.cfg.LEDMax) {
				level = int(c.cfg.LEDMax)
			}
			col := Sun(uint8(level))
			out.LED = &col
		}
	case datetime.SunRise:
		col := Sun(c.cfg.LEDMax)
		out.LED = &col
		out.Buzzer = true
	}
	if c.forced != nil {
		col := *c.forced
		out.LED = &col
		out.LEDForced = true
	}

	_, sunrise := clk.Phase.(datetime.SunRise)
	switch {
	case c.luminosity.stable:
		out.Display = IntensityBright
	case c.button.stable || c.proximity.stable || sunrise:
		out.Display = IntensityDim
	default:
		out.Display = IntensityOff
	}
	return out
}

// ForceColor overrides the LED strip colour; nil returns to the phase
// driven colour.
func (c *Controller) ForceColor(col *Color) {
	if col == nil {
		c.forced = nil
		return
	}
	v := *col
	c.forced = &v
}

// IsBaselined returns whether every input has a debounced level.
func (c *Controller) IsBaselined() bool {
	return c.baselined
}

// Inputs returns the debounced input levels.
func (c *Controller) Inputs() (button, luminosity, proximity bool) {
	return c.button.stable, c.luminosity.stable, c.proximity.stable
}

// Counts returns the number of events since startup.
func (c *Controller) Counts() EventCounts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}
	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
