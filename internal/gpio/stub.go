//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealLine is not available on non-Linux platforms.
type RealLine struct{}

// OpenLine returns an error on non-Linux platforms.
func OpenLine(chip string, pin PinConfig) (*RealLine, error) {
	return nil, errUnsupported
}

// Value is not implemented on non-Linux platforms.
func (l *RealLine) Value() (bool, error) {
	return false, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *RealLine) Close() error {
	return nil
}

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chip string, button, luminosity, proximity PinConfig) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Levels, error) {
	return Levels{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
