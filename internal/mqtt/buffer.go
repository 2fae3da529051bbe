package mqtt

import (
	"log"
	"sync"
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// Not safe for concurrent use; outbox synchronizes it.
type ringBuffer struct {
	buf      []bufferedMsg
	head     int // next write position
	count    int
	overflow bool // true if any message was dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.buf)
	r.buf[r.head] = msg
	r.head = (r.head + 1) % n
	if r.count < n {
		r.count++
		return
	}
	// Full: the write above replaced the oldest message.
	if !r.overflow {
		log.Printf("mqtt: buffer full (%d messages), dropping oldest", n)
		r.overflow = true
	}
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	n := len(r.buf)
	result := make([]bufferedMsg, r.count)
	start := (r.head - r.count + n) % n
	for i := range result {
		result[i] = r.buf[(start+i)%n]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}

// outbox sends messages while the broker is reachable and buffers them
// otherwise, replaying them in order on flush.
type outbox struct {
	mu     sync.Mutex
	buf    *ringBuffer
	send   func(bufferedMsg) error
	online func() bool
}

func newOutbox(capacity int, send func(bufferedMsg) error, online func() bool) *outbox {
	return &outbox{buf: newRingBuffer(capacity), send: send, online: online}
}

// publish sends msg, or buffers it when offline or when sending fails.
// Older buffered messages are replayed first so ordering is kept. The send
// error is returned after buffering.
func (o *outbox) publish(msg bufferedMsg) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.online() {
		o.buf.push(msg)
		return nil
	}
	if o.buf.len() > 0 {
		if _, err := o.flushLocked(); err != nil {
			o.buf.push(msg)
			return err
		}
	}
	if err := o.send(msg); err != nil {
		o.buf.push(msg)
		return err
	}
	return nil
}

// flush replays buffered messages and returns how many were sent. On the
// first failure the rest stay buffered.
func (o *outbox) flush() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n, _ := o.flushLocked()
	return n
}

func (o *outbox) flushLocked() (int, error) {
	msgs := o.buf.drainAll()
	for i, m := range msgs {
		if err := o.send(m); err != nil {
			log.Printf("mqtt: replay failed after %d of %d messages: %v", i, len(msgs), err)
			for _, rest := range msgs[i:] {
				o.buf.push(rest)
			}
			return i, err
		}
	}
	return len(msgs), nil
}

func (o *outbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.len()
}
