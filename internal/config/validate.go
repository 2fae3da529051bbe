package config

import (
	"fmt"

	"github.com/sweeney/sunrise-clock/internal/timer"
)

// maxPin is the highest line offset accepted on a gpiochip.
const maxPin = 63

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Radio.Pin < 0 || cfg.Radio.Pin > maxPin {
		return fmt.Errorf("radio: pin %d out of range [0, %d]", cfg.Radio.Pin, maxPin)
	}

	used := map[int]string{cfg.Radio.Pin: "radio"}
	for _, in := range []struct {
		name string
		pin  PinConfig
	}{
		{"button", cfg.Inputs.Button},
		{"luminosity", cfg.Inputs.Luminosity},
		{"proximity", cfg.Inputs.Proximity},
	} {
		if in.pin.Pin == -1 {
			continue
		}
		if in.pin.Pin < 0 || in.pin.Pin > maxPin {
			return fmt.Errorf("inputs.%s: pin %d out of range [-1, %d]", in.name, in.pin.Pin, maxPin)
		}
		if prev, ok := used[in.pin.Pin]; ok && cfg.Inputs.Chip == cfg.Radio.Chip {
			return fmt.Errorf("inputs.%s: pin %d already used by %s", in.name, in.pin.Pin, prev)
		}
		used[in.pin.Pin] = in.name
	}
	if cfg.Inputs.Debounce < 0 {
		return fmt.Errorf("inputs: negative debounce %v", cfg.Inputs.Debounce)
	}

	switch cfg.RTC.Driver {
	case DriverDS3231:
		if cfg.RTC.Bus == "" {
			return fmt.Errorf("rtc: bus is required for %s", DriverDS3231)
		}
		// 7-bit addresses outside the reserved ranges.
		if cfg.RTC.Address < 0x08 || cfg.RTC.Address > 0x77 {
			return fmt.Errorf("rtc: address %#x out of range [0x08, 0x77]", cfg.RTC.Address)
		}
	case DriverSystem:
	default:
		return fmt.Errorf("rtc: unknown driver %q (want %s or %s)", cfg.RTC.Driver, DriverDS3231, DriverSystem)
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"dawn_minutes", cfg.Alarm.DawnMinutes},
		{"auto_ack_minutes", cfg.Alarm.AutoAckMinutes},
		{"led_max_intensity", cfg.Alarm.LEDMaxIntensity},
	} {
		if f.v < 0 || f.v > 255 {
			return fmt.Errorf("alarm.%s: %d out of range [0, 255]", f.name, f.v)
		}
	}
	if _, err := cfg.ClockSettings(); err != nil {
		return fmt.Errorf("alarm.%w", err)
	}

	if cfg.MQTT.Buffer < 0 {
		return fmt.Errorf("mqtt: negative buffer %d", cfg.MQTT.Buffer)
	}

	// Every radio sample must be seen once by the decoder.
	if cfg.Loop.Interval <= 0 || cfg.Loop.Interval.Milliseconds() >= timer.SamplePeriodMs {
		return fmt.Errorf("loop: interval %v must be in (0, %dms)", cfg.Loop.Interval, timer.SamplePeriodMs)
	}
	if cfg.Loop.Heartbeat < 0 {
		return fmt.Errorf("loop: negative heartbeat %v", cfg.Loop.Heartbeat)
	}
	return nil
}
