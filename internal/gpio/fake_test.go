package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Levels{
		{Button: true},
		{Luminosity: true, Proximity: true},
		{Button: true, Luminosity: true, Proximity: true},
	}

	f := NewFakeReader(samples)

	for i, want := range append(samples, samples[2]) {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("sample %d: expected %+v, got %+v", i, want, got)
		}
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Levels{{Button: true}})
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Levels{{Button: true}})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	err := f.Close()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	samples := []Levels{
		{Button: true},
		{Proximity: true},
	}

	f := NewFakeReader(samples)

	// Consume first sample
	f.Read()

	// Reset
	f.Reset()

	// Should read first sample again
	got, _ := f.Read()
	if got != samples[0] {
		t.Errorf("after reset: expected %+v, got %+v", samples[0], got)
	}
}

func TestFakeLine(t *testing.T) {
	var l FakeLine

	if v, err := l.Value(); err != nil || v {
		t.Fatalf("initial: expected (false, nil), got (%v, %v)", v, err)
	}
	l.Set(true)
	if v, _ := l.Value(); !v {
		t.Error("expected true after Set(true)")
	}

	l.SetError(errors.New("line gone"))
	if _, err := l.Value(); err == nil {
		t.Error("expected error")
	}
	l.SetError(nil)

	if l.Reads() != 3 {
		t.Errorf("reads: expected 3, got %d", l.Reads())
	}
	l.Close()
	if !l.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestPinConfigEnabled(t *testing.T) {
	if !(PinConfig{Pin: 0}).Enabled() {
		t.Error("pin 0 must be enabled")
	}
	if (PinConfig{Pin: -1}).Enabled() {
		t.Error("pin -1 must be disabled")
	}
}
