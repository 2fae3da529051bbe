//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

func lineOptions(activeLow bool) []gpiocdev.LineReqOption {
	// The receiver and sensors are open collector outputs.
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

// RealLine is a single input line on a GPIO character device.
type RealLine struct {
	line *gpiocdev.Line
}

// OpenLine requests pin on chip as an input.
func OpenLine(chip string, pin PinConfig) (*RealLine, error) {
	l, err := gpiocdev.RequestLine(chip, pin.Pin, lineOptions(pin.ActiveLow)...)
	if err != nil {
		return nil, fmt.Errorf("request pin %d on %s: %w", pin.Pin, chip, err)
	}
	return &RealLine{line: l}, nil
}

// Value returns the logical level; active low lines are inverted by the
// kernel.
func (l *RealLine) Value() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

// Close reconfigures the line to input with pull-down (matching Pi boot
// defaults) before releasing it.
func (l *RealLine) Close() error {
	var errs []error
	if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure: %w", err))
	}
	if err := l.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealReader reads the user inputs from actual hardware.
type RealReader struct {
	button     *RealLine
	luminosity *RealLine
	proximity  *RealLine
}

// NewRealReader requests the enabled input pins on chip.
func NewRealReader(chip string, button, luminosity, proximity PinConfig) (*RealReader, error) {
	r := &RealReader{}
	for _, p := range []struct {
		name string
		cfg  PinConfig
		dst  **RealLine
	}{
		{"button", button, &r.button},
		{"luminosity", luminosity, &r.luminosity},
		{"proximity", proximity, &r.proximity},
	} {
		if !p.cfg.Enabled() {
			continue
		}
		l, err := OpenLine(chip, p.cfg)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = l
	}
	return r, nil
}

// Read returns the logical levels of the inputs.
func (r *RealReader) Read() (Levels, error) {
	var lv Levels
	for _, p := range []struct {
		name string
		line *RealLine
		dst  *bool
	}{
		{"button", r.button, &lv.Button},
		{"luminosity", r.luminosity, &lv.Luminosity},
		{"proximity", r.proximity, &lv.Proximity},
	} {
		if p.line == nil {
			continue
		}
		v, err := p.line.Value()
		if err != nil {
			return Levels{}, fmt.Errorf("read %s pin: %w", p.name, err)
		}
		*p.dst = v
	}
	return lv, nil
}

// Close releases GPIO resources.
func (r *RealReader) Close() error {
	var errs []error
	for _, l := range []*RealLine{r.button, r.luminosity, r.proximity} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
