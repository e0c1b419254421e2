package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultCapacity is the number of messages retained when New is given a
// non-positive capacity.
const DefaultCapacity = 100

// ErrClosed is returned by Next once the bus is closed and the subscriber
// has drained every retained message.
var ErrClosed = errors.New("bus: closed")

// LaggedError reports that a subscriber fell behind and Missed messages
// were overwritten before it read them.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("bus: subscriber lagged, %d messages missed", e.Missed)
}

// Bus is a bounded broadcast log.
type Bus struct {
	mu     sync.Mutex
	ring   []Envelope
	next   uint64 // sequence number of the next published message
	closed bool
	notify chan struct{}
	now    func() time.Time
}

// New creates a bus retaining up to capacity messages.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		ring:   make([]Envelope, capacity),
		next:   1,
		notify: make(chan struct{}),
		now:    time.Now,
	}
}

// Publish appends msg and wakes waiting subscribers. It returns the
// message's sequence number, or 0 when the bus is closed.
func (b *Bus) Publish(msg Message) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0
	}
	seq := b.next
	b.ring[seq%uint64(len(b.ring))] = Envelope{Seq: seq, At: b.now(), Msg: msg}
	b.next++
	close(b.notify)
	b.notify = make(chan struct{})
	return seq
}

// Close stops publishing. Subscribers still receive retained messages and
// then ErrClosed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// Published returns the number of messages published so far.
func (b *Bus) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next - 1
}

// Subscribe returns a subscription that sees every message published after
// this call.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Subscription{bus: b, cursor: b.next}
}

// Subscription is one subscriber's cursor into the log. It is not safe for
// concurrent use.
type Subscription struct {
	bus    *Bus
	cursor uint64
}

// Next blocks until a message is available, ctx is done, or the bus is
// closed and drained. A *LaggedError is returned once when messages were
// lost; the following call resumes at the oldest retained message.
func (s *Subscription) Next(ctx context.Context) (Envelope, error) {
	for {
		b := s.bus
		b.mu.Lock()
		oldest := uint64(1)
		if capacity := uint64(len(b.ring)); b.next > capacity {
			oldest = b.next - capacity
		}
		if s.cursor < oldest {
			missed := oldest - s.cursor
			s.cursor = oldest
			b.mu.Unlock()
			return Envelope{}, &LaggedError{Missed: missed}
		}
		if s.cursor < b.next {
			env := b.ring[s.cursor%uint64(len(b.ring))]
			s.cursor++
			b.mu.Unlock()
			return env, nil
		}
		if b.closed {
			b.mu.Unlock()
			return Envelope{}, ErrClosed
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-wait:
		}
	}
}

// Pending is the number of messages published but not yet read.
func (s *Subscription) Pending() uint64 {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	return s.bus.next - s.cursor
}
