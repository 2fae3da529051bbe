// Package config loads the sunrise clock configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sweeney/sunrise-clock/internal/alarm"
	"github.com/sweeney/sunrise-clock/internal/clock"
	"github.com/sweeney/sunrise-clock/internal/datetime"
	"github.com/sweeney/sunrise-clock/internal/gpio"
	"gopkg.in/yaml.v3"
)

// RTC drivers.
const (
	DriverDS3231 = "ds3231"
	DriverSystem = "system"
)

// Config is the daemon configuration.
type Config struct {
	Radio  RadioConfig  `yaml:"radio"`
	Inputs InputsConfig `yaml:"inputs"`
	RTC    RTCConfig    `yaml:"rtc"`
	Alarm  AlarmConfig  `yaml:"alarm"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	HTTP   HTTPConfig   `yaml:"http"`
	Loop   LoopConfig   `yaml:"loop"`
}

// PinConfig is one GPIO input. A pin of -1 disables it.
type PinConfig struct {
	Pin       int  `yaml:"pin"`
	ActiveLow bool `yaml:"active_low"`
}

// GPIO converts to the gpio package form.
func (p PinConfig) GPIO() gpio.PinConfig {
	return gpio.PinConfig{Pin: p.Pin, ActiveLow: p.ActiveLow}
}

// RadioConfig is the DCF77 receiver output.
type RadioConfig struct {
	Chip      string `yaml:"chip"`
	Pin       int    `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
}

// GPIO converts to the gpio package form.
func (r RadioConfig) GPIO() gpio.PinConfig {
	return gpio.PinConfig{Pin: r.Pin, ActiveLow: r.ActiveLow}
}

// InputsConfig are the user and environment inputs.
type InputsConfig struct {
	Chip       string        `yaml:"chip"`
	Button     PinConfig     `yaml:"button"`
	Luminosity PinConfig     `yaml:"luminosity"`
	Proximity  PinConfig     `yaml:"proximity"`
	Debounce   time.Duration `yaml:"debounce"`
}

// RTCConfig selects the real-time clock.
type RTCConfig struct {
	Driver  string `yaml:"driver"`
	Bus     string `yaml:"bus"`
	Address uint16 `yaml:"address"`
}

// AlarmConfig holds the alarm settings. Empty times disable the alarm for
// that part of the week; zero dawn minutes disable the dawn.
type AlarmConfig struct {
	DawnMinutes     int    `yaml:"dawn_minutes"`
	WeekSunrise     string `yaml:"week_sunrise"`
	WeekendSunrise  string `yaml:"weekend_sunrise"`
	AutoAckMinutes  int    `yaml:"auto_ack_minutes"`
	LEDMaxIntensity int    `yaml:"led_max_intensity"`
}

// MQTTConfig is the event publisher. An empty broker disables it.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Buffer      int    `yaml:"buffer"`
}

// HTTPConfig is the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LoopConfig paces the control loop.
type LoopConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			Chip:      "gpiochip0",
			Pin:       gpio.PinRadio,
			ActiveLow: true,
		},
		Inputs: InputsConfig{
			Chip:       "gpiochip0",
			Button:     PinConfig{Pin: gpio.PinButton, ActiveLow: true},
			Luminosity: PinConfig{Pin: gpio.PinLuminosity, ActiveLow: true},
			Proximity:  PinConfig{Pin: gpio.PinProximity, ActiveLow: true},
			Debounce:   100 * time.Millisecond,
		},
		RTC: RTCConfig{
			Driver:  DriverDS3231,
			Bus:     "/dev/i2c-1",
			Address: 0x68,
		},
		Alarm: AlarmConfig{
			DawnMinutes:     20,
			WeekSunrise:     "06:00",
			WeekendSunrise:  "08:10",
			AutoAckMinutes:  5,
			LEDMaxIntensity: 0x55,
		},
		MQTT: MQTTConfig{
			ClientID:    "sunrise-clock",
			TopicPrefix: "home/sunrise-clock",
			Buffer:      100,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Loop: LoopConfig{
			Interval:  10 * time.Millisecond,
			Heartbeat: 15 * time.Minute,
		},
	}
}

// Load reads the configuration from a YAML file. Keys missing from the file
// keep their default value. An empty path returns Default().
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes YAML over c, then fills the keys that must not be empty.
func Parse(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(c)
	return nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Radio.Chip == "" {
		c.Radio.Chip = d.Radio.Chip
	}
	if c.Inputs.Chip == "" {
		c.Inputs.Chip = c.Radio.Chip
	}
	if c.RTC.Driver == "" {
		c.RTC.Driver = d.RTC.Driver
	}
	if c.RTC.Bus == "" {
		c.RTC.Bus = d.RTC.Bus
	}
	if c.RTC.Address == 0 {
		c.RTC.Address = d.RTC.Address
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = d.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = d.MQTT.TopicPrefix
	}
	if c.MQTT.Buffer == 0 {
		c.MQTT.Buffer = d.MQTT.Buffer
	}
	if c.Loop.Interval == 0 {
		c.Loop.Interval = d.Loop.Interval
	}
}

// ClockSettings converts the alarm settings. Call Validate first.
func (c *Config) ClockSettings() (clock.Settings, error) {
	var s clock.Settings
	if c.Alarm.DawnMinutes > 0 {
		d := uint8(c.Alarm.DawnMinutes)
		s.DawnDuration = &d
	}
	var err error
	if s.WeekSunrise, err = parseSunrise(c.Alarm.WeekSunrise); err != nil {
		return clock.Settings{}, fmt.Errorf("week_sunrise: %w", err)
	}
	if s.WeekendSunrise, err = parseSunrise(c.Alarm.WeekendSunrise); err != nil {
		return clock.Settings{}, fmt.Errorf("weekend_sunrise: %w", err)
	}
	return s, nil
}

// ControllerConfig returns the alarm controller settings.
func (c *Config) ControllerConfig() alarm.Config {
	return alarm.Config{
		Debounce:       c.Inputs.Debounce,
		AutoAckMinutes: uint8(c.Alarm.AutoAckMinutes),
		LEDMax:         uint8(c.Alarm.LEDMaxIntensity),
	}
}

func parseSunrise(s string) (*datetime.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := datetime.ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
