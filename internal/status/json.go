package status

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/dcf77"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Datetime      string       `json:"datetime,omitempty"`
	Phase         PhaseJSON    `json:"phase"`
	Radio         RadioJSON    `json:"radio"`
	RTCError      string       `json:"rtc_error,omitempty"`
	Alarm         AlarmJSON    `json:"alarm"`
	Outputs       OutputsJSON  `json:"outputs"`
	Inputs        InputsJSON   `json:"inputs"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// PhaseJSON is the phase of the day.
type PhaseJSON struct {
	Kind           string `json:"kind"`
	Minutes        *int   `json:"minutes,omitempty"`
	LastTriggerDay *int   `json:"last_trigger_day,omitempty"`
	Text           string `json:"text"`
}

// RadioJSON is the decoder state.
type RadioJSON struct {
	LastSync          string `json:"last_sync,omitempty"`
	QuartersSinceSync *int   `json:"quarters_since_sync,omitempty"`
	LastSymbol        string `json:"last_symbol"`
	Frame             string `json:"frame"`
	Samples           int    `json:"samples"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorTime     string `json:"last_error_time,omitempty"`
}

// AlarmJSON is the alarm configuration; empty fields are disabled.
type AlarmJSON struct {
	DawnMinutes    *int   `json:"dawn_minutes,omitempty"`
	WeekSunrise    string `json:"week_sunrise,omitempty"`
	WeekendSunrise string `json:"weekend_sunrise,omitempty"`
}

// OutputsJSON is the actuator state.
type OutputsJSON struct {
	LED       string `json:"led"`
	LEDForced bool   `json:"led_forced"`
	Buzzer    bool   `json:"buzzer"`
	Display   string `json:"display"`
}

// InputsJSON is the debounced input state.
type InputsJSON struct {
	Button     bool `json:"button"`
	Luminosity bool `json:"luminosity"`
	Proximity  bool `json:"proximity"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Dawn      int `json:"dawn"`
	Sunrise   int `json:"sunrise"`
	Default   int `json:"default"`
	Ack       int `json:"ack"`
	RadioSync int `json:"radio_sync"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	RTC         string `json:"rtc"`
	Simulated   bool   `json:"simulated,omitempty"`
}

// FrameString renders symbols as a line of glyphs.
func FrameString(symbols []dcf77.Symbol) string {
	var b strings.Builder
	for _, s := range symbols {
		b.WriteString(s.String())
	}
	return b.String()
}

// BuildPhase returns the JSON form of a phase.
func BuildPhase(p datetime.PhaseOfDay) PhaseJSON {
	if p == nil {
		p = datetime.Default{}
	}
	out := PhaseJSON{Kind: p.Kind(), Text: p.String()}
	switch v := p.(type) {
	case datetime.Default:
		if v.LastTriggerDay != 0 {
			d := int(v.LastTriggerDay)
			out.LastTriggerDay = &d
		}
	case datetime.Dawn:
		m := int(v.ElapsedSinceDawn)
		out.Minutes = &m
	case datetime.SunRise:
		m := int(v.ElapsedSinceSunrise)
		out.Minutes = &m
	}
	return out
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Phase: BuildPhase(snap.Phase),
		Radio: RadioJSON{
			LastSymbol: snap.Radio.LastSymbol.String(),
			Frame:      FrameString(snap.Radio.Frame),
			Samples:    snap.Radio.Samples,
		},
		Outputs: OutputsJSON{
			LEDForced: snap.Outputs.LEDForced,
			Buzzer:    snap.Outputs.Buzzer,
			Display:   string(snap.Outputs.Display),
		},
		Inputs: InputsJSON{
			Button:     snap.Button,
			Luminosity: snap.Luminosity,
			Proximity:  snap.Proximity,
		},
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Dawn:      snap.Counts.Dawn,
			Sunrise:   snap.Counts.Sunrise,
			Default:   snap.Counts.Default,
			Ack:       snap.Counts.Ack,
			RadioSync: snap.Counts.RadioSync,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			RTC:         snap.Config.RTC,
			Simulated:   snap.Config.Simulated,
		},
	}

	if snap.Datetime != nil {
		inner.Datetime = snap.Datetime.String()
	}
	if snap.LastRadioSync != nil {
		inner.Radio.LastSync = snap.LastRadioSync.String()
	}
	if snap.QuartersKnown {
		q := snap.Quarters
		inner.Radio.QuartersSinceSync = &q
	}
	if snap.Radio.LastError != nil {
		inner.Radio.LastError = snap.Radio.LastError.Error()
		inner.Radio.LastErrorTime = snap.Radio.LastErrorTime.UTC().Format(time.RFC3339)
	}
	if snap.RTCError != nil {
		inner.RTCError = snap.RTCError.Error()
	}

	if d := snap.Settings.DawnDuration; d != nil {
		v := int(*d)
		inner.Alarm.DawnMinutes = &v
	}
	if s := snap.Settings.WeekSunrise; s != nil {
		inner.Alarm.WeekSunrise = s.String()
	}
	if s := snap.Settings.WeekendSunrise; s != nil {
		inner.Alarm.WeekendSunrise = s.String()
	}

	inner.Outputs.LED = "off"
	if snap.Outputs.LED != nil {
		inner.Outputs.LED = snap.Outputs.LED.String()
	}
	if inner.Outputs.Display == "" {
		inner.Outputs.Display = "OFF"
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
