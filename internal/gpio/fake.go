package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted input levels.
type FakeReader struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Levels

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Levels) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeLine is a single line whose level is set by the test. It is safe for
// concurrent use, as the sampler reads it from its own goroutine.
type FakeLine struct {
	mu     sync.Mutex
	level  bool
	err    error
	reads  int
	closed bool
}

// Set changes the level returned by Value.
func (l *FakeLine) Set(level bool) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetError makes Value fail with err; nil clears it.
func (l *FakeLine) SetError(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// Value returns the current level.
func (l *FakeLine) Value() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reads++
	if l.err != nil {
		return false, l.err
	}
	return l.level, nil
}

// Reads returns the number of calls to Value.
func (l *FakeLine) Reads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reads
}

// Close marks the line as closed.
func (l *FakeLine) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (l *FakeLine) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
