// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Levels is one reading of the user and environment inputs, as logical
// levels: true is active.
type Levels struct {
	Button     bool
	Luminosity bool
	Proximity  bool
}

// Reader reads the user and environment inputs.
type Reader interface {
	// Read returns the logical levels. A disabled input reads inactive.
	Read() (Levels, error)

	// Close releases GPIO resources.
	Close() error
}

// Line is a single input read at high rate, such as the radio receiver.
type Line interface {
	// Value returns the logical level.
	Value() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// PinConfig selects a line and its electrical to logical mapping.
// A negative Pin disables the input.
type PinConfig struct {
	Pin       int
	ActiveLow bool
}

// Enabled reports whether the pin is used.
func (p PinConfig) Enabled() bool {
	return p.Pin >= 0
}

// Default pins (BCM numbering).
const (
	PinRadio      = 17
	PinButton     = 22
	PinLuminosity = 23
	PinProximity  = 24
)
