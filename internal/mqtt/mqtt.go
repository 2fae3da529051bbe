// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/datetime"
)

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "home/sunrise-clock"

// Topics are the MQTT topics the clock publishes to.
type Topics struct {
	// Events receives alarm and radio sync events.
	Events string
	// System receives lifecycle events (startup, shutdown, heartbeat).
	System string
}

// NewTopics derives the topics from prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Events: prefix + "/events",
		System: prefix + "/system",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an alarm event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event alarm.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string         // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string         // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Heartbeat  *HeartbeatInfo // heartbeat only
	RawPayload []byte         // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool           // Whether the message should be retained by the broker
}

// HeartbeatInfo is the heartbeat part of a system event.
type HeartbeatInfo struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	EventCounts   HeartbeatCounts `json:"event_counts"`
}

// HeartbeatCounts is the JSON form of alarm.EventCounts.
type HeartbeatCounts struct {
	Dawn      int `json:"dawn"`
	Sunrise   int `json:"sunrise"`
	Default   int `json:"default"`
	Ack       int `json:"ack"`
	RadioSync int `json:"radio_sync"`
}

// NewHeartbeatEvent builds the system event for a controller heartbeat.
func NewHeartbeatEvent(hb alarm.HeartbeatData) SystemEvent {
	return SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     "HEARTBEAT",
		Heartbeat: &HeartbeatInfo{
			UptimeSeconds: int64(hb.Uptime.Truncate(time.Second).Seconds()),
			EventCounts: HeartbeatCounts{
				Dawn:      hb.Counts.Dawn,
				Sunrise:   hb.Counts.Sunrise,
				Default:   hb.Counts.Default,
				Ack:       hb.Counts.Ack,
				RadioSync: hb.Counts.RadioSync,
			},
		},
	}
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Alarm AlarmPayload `json:"alarm"`
}

// AlarmPayload contains the alarm event details.
type AlarmPayload struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Phase     PhasePayload `json:"phase"`
	Reason    string       `json:"reason,omitempty"`
	// Datetime is the clock time, or the decoded time for RADIO_SYNC.
	Datetime string `json:"datetime,omitempty"`
}

// PhasePayload is the phase of the day after the event.
type PhasePayload struct {
	Kind string `json:"kind"`
	// Minutes is the time spent in Dawn or SunRise.
	Minutes *int `json:"minutes,omitempty"`
	// LastTriggerDay is the day of the last acknowledgement, in Default.
	LastTriggerDay *int `json:"last_trigger_day,omitempty"`
}

func phasePayload(p datetime.PhaseOfDay) PhasePayload {
	if p == nil {
		return PhasePayload{Kind: datetime.Default{}.Kind()}
	}
	out := PhasePayload{Kind: p.Kind()}
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

// FormatPayload creates the JSON payload for an alarm event.
func FormatPayload(event alarm.Event) ([]byte, error) {
	payload := Payload{
		Alarm: AlarmPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Phase:     phasePayload(event.Phase),
			Reason:    string(event.Reason),
		},
	}
	if event.Datetime != nil {
		payload.Alarm.Datetime = event.Datetime.String()
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED, HEARTBEAT) that don't carry a
// full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Heartbeat: event.Heartbeat,
		},
	}
	return json.Marshal(payload)
}
