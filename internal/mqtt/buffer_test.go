package mqtt

import (
	"errors"
	"testing"
)

func msg(i int) bufferedMsg {
	return bufferedMsg{topic: "t", payload: []byte{byte(i)}}
}

func payloads(msgs []bufferedMsg) []byte {
	var out []byte
	for _, m := range msgs {
		out = append(out, m.payload[0])
	}
	return out
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		pushed   int
		want     []byte
	}{
		{"partial", 10, 5, []byte{0, 1, 2, 3, 4}},
		{"full", 5, 5, []byte{0, 1, 2, 3, 4}},
		{"overflow keeps newest", 5, 8, []byte{3, 4, 5, 6, 7}},
		{"zero capacity holds one", 0, 3, []byte{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := newRingBuffer(tt.capacity)
			for i := 0; i < tt.pushed; i++ {
				rb.push(msg(i))
			}
			if got := payloads(rb.drainAll()); string(got) != string(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := rb.drainAll(); got != nil {
				t.Errorf("expected nil from second drain, got %d items", len(got))
			}
		})
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(msg(i))
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(msg(i))
	}
	if got := payloads(rb.drainAll()); string(got) != string([]byte{10, 11, 12, 13}) {
		t.Errorf("cycle 2: got %v", got)
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    "home/test",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "home/test" || string(got[0].payload) != `{"test":true}` || got[0].qos != 1 || !got[0].retained {
		t.Errorf("got %+v", got[0])
	}
}

// fakeLink is the broker side of an outbox.
type fakeLink struct {
	up      bool
	failing bool
	sent    []bufferedMsg
}

func (l *fakeLink) send(m bufferedMsg) error {
	if l.failing {
		return errors.New("publish timeout")
	}
	l.sent = append(l.sent, m)
	return nil
}

func (l *fakeLink) online() bool { return l.up }

func TestOutboxSendsWhenOnline(t *testing.T) {
	link := &fakeLink{up: true}
	o := newOutbox(10, link.send, link.online)

	if err := o.publish(msg(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(link.sent) != 1 || o.pending() != 0 {
		t.Errorf("sent %d, pending %d", len(link.sent), o.pending())
	}
}

func TestOutboxBuffersOfflineAndReplaysInOrder(t *testing.T) {
	link := &fakeLink{}
	o := newOutbox(10, link.send, link.online)

	for i := 0; i < 3; i++ {
		if err := o.publish(msg(i)); err != nil {
			t.Fatalf("offline publish must not fail: %v", err)
		}
	}
	if len(link.sent) != 0 || o.pending() != 3 {
		t.Fatalf("sent %d, pending %d", len(link.sent), o.pending())
	}

	link.up = true
	// A message published before the reconnect flush replays the older
	// ones first.
	if err := o.publish(msg(3)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n := o.flush(); n != 0 || o.pending() != 0 {
		t.Errorf("flush: sent %d, pending %d", n, o.pending())
	}
	if got := payloads(link.sent); string(got) != string([]byte{0, 1, 2, 3}) {
		t.Errorf("order: got %v", got)
	}
}

func TestOutboxKeepsFailedMessages(t *testing.T) {
	link := &fakeLink{up: true, failing: true}
	o := newOutbox(10, link.send, link.online)

	if err := o.publish(msg(7)); err == nil {
		t.Error("expected the send error")
	}
	if o.pending() != 1 {
		t.Fatalf("pending: got %d, want 1", o.pending())
	}
	if n := o.flush(); n != 0 || o.pending() != 1 {
		t.Errorf("failed flush: sent %d, pending %d", n, o.pending())
	}

	link.failing = false
	if n := o.flush(); n != 1 || o.pending() != 0 {
		t.Errorf("flush: sent %d, pending %d", n, o.pending())
	}
}

func TestOutboxRecoversWithoutReconnect(t *testing.T) {
	link := &fakeLink{up: true, failing: true}
	o := newOutbox(10, link.send, link.online)

	if err := o.publish(msg(0)); err == nil {
		t.Fatal("expected the send error")
	}
	// Still failing: the new message queues behind the old one.
	if err := o.publish(msg(1)); err == nil {
		t.Error("expected the replay error")
	}
	if o.pending() != 2 || len(link.sent) != 0 {
		t.Fatalf("sent %d, pending %d", len(link.sent), o.pending())
	}

	// The connection never dropped, so no flush comes from a reconnect.
	link.failing = false
	for i := 2; i < 6; i++ {
		if err := o.publish(msg(i)); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if o.pending() != 0 {
		t.Errorf("pending: got %d, want 0", o.pending())
	}
	if got := payloads(link.sent); string(got) != string([]byte{0, 1, 2, 3, 4, 5}) {
		t.Errorf("order: got %v", got)
	}
}
