package pubsub

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is the terminal signal returned by Next once a subscription
// has been closed and its buffer drained.
var ErrClosed = errors.New("pubsub: subscription closed")

// Subscription is one consumer's cancellable, lazy, infinite sequence of
// payloads on a single channel. It is owned by exactly one consumer task;
// Next must not be called concurrently with itself.
type Subscription struct {
	broker  *Broker
	channel string

	mu     sync.Mutex
	queue  []any
	closed bool

	// wake has capacity 1: a publish into an empty buffer nudges a
	// parked Next without ever blocking the publisher.
	wake chan struct{}
	done chan struct{}
}

// Channel returns the channel name this subscription is bound to.
func (s *Subscription) Channel() string { return s.channel }

// Next yields the next payload in publish order.
//
// If an event is already buffered it returns immediately. Otherwise it
// suspends until the next publish on the channel, the subscription is
// closed (ErrClosed), or ctx is cancelled (ctx.Err(); the subscription is
// closed as a side effect so the registry entry cannot leak when a
// transport abandons the consumer).
func (s *Subscription) Next(ctx context.Context) (any, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			payload := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return payload, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-s.wake:
		case <-s.done:
			// Re-check the buffer: events enqueued between the empty
			// check and Close still get delivered before the terminal.
		case <-ctx.Done():
			s.Close()
			return nil, ctx.Err()
		}
	}
}

// Close deregisters the subscription and resolves any parked Next call
// with ErrClosed (after the remaining buffer drains). Idempotent; safe to
// call from a different goroutine than the consumer.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.broker.remove(s)
}

// enqueue appends a payload and wakes a parked consumer. Publishes racing
// with Close are dropped once the subscription is marked closed.
func (s *Subscription) enqueue(payload any, warnDepth int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, payload)
	depth := len(s.queue)
	s.mu.Unlock()

	if warnDepth > 0 && depth == warnDepth {
		warnSlowConsumer(s.channel, depth)
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}
}
