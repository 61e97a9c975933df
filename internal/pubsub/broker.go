// Package pubsub implements the in-process publish/subscribe channel used
// to push write events (new comments) to live subscribers.
//
// Semantics:
//   - Publish is fire-and-forget and never blocks on slow consumers: each
//     subscriber owns an unbounded FIFO buffer, so a subscriber that falls
//     behind accumulates memory rather than stalling the publisher. The
//     broker logs a warning when a buffer crosses WarnDepth so operators
//     can see it happening.
//   - A publish with no subscribers drops the event (at-most-once, no
//     replay); subscribers only see events published after they joined.
//   - Channels exist implicitly: an entry is created on first subscribe
//     and removed when its last subscriber leaves.
//   - Filtering by sub-key is done by naming ("comment_added:<startupID>"),
//     keeping fan-out proportional to actual interest.
//
// The registry is guarded by a RWMutex: Publish snapshots subscribers
// under the read lock, Subscribe and Close take the write lock.
package pubsub

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	// subscribersGauge tracks the number of live subscriptions across all
	// channels. Channels are not a label: their names embed resource IDs
	// and would blow up cardinality.
	subscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pubsub_subscribers",
		Help: "Current number of live pub/sub subscriptions.",
	})

	// publishedTotal counts published events, delivered or dropped.
	publishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubsub_published_total",
		Help: "Total number of events published to the in-process broker.",
	})

	// droppedTotal counts publishes that found no subscriber.
	droppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pubsub_dropped_total",
		Help: "Published events dropped because the channel had no subscribers.",
	})
)

func init() {
	prometheus.MustRegister(subscribersGauge, publishedTotal, droppedTotal)
}

// Broker routes published payloads to the subscriptions registered on the
// same channel name. The zero value is not usable; construct with New.
// Safe for concurrent use.
type Broker struct {
	mu        sync.RWMutex
	channels  map[string]map[*Subscription]struct{}
	warnDepth int
}

// Option configures a Broker.
type Option func(*Broker)

// WithWarnDepth sets the per-subscriber buffer depth at which the broker
// logs a slow-consumer warning. Zero disables the warning.
func WithWarnDepth(n int) Option {
	return func(b *Broker) { b.warnDepth = n }
}

// New constructs an empty Broker.
func New(opts ...Option) *Broker {
	b := &Broker{channels: make(map[string]map[*Subscription]struct{})}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers a new subscription on channel and returns it. The
// caller owns the subscription and must Close it when done; Close is also
// triggered by cancelling the context passed to Next, via the transport's
// disconnect path.
func (b *Broker) Subscribe(channel string) *Subscription {
	s := &Subscription{
		broker:  b,
		channel: channel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	b.mu.Lock()
	set, ok := b.channels[channel]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.channels[channel] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()
	subscribersGauge.Inc()
	return s
}

// Publish delivers payload to every subscription currently registered on
// channel, in publish order per subscriber, and returns immediately.
// Publishing to a channel without subscribers is not an error.
func (b *Broker) Publish(channel string, payload any) {
	publishedTotal.Inc()

	b.mu.RLock()
	set := b.channels[channel]
	subs := make([]*Subscription, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		droppedTotal.Inc()
		return
	}
	for _, s := range subs {
		s.enqueue(payload, b.warnDepth)
	}
}

// Subscribers reports how many subscriptions are registered on channel.
func (b *Broker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}

// remove deregisters s; the channel entry disappears with its last
// subscriber so an idle broker holds no state.
func (b *Broker) remove(s *Subscription) {
	b.mu.Lock()
	if set, ok := b.channels[s.channel]; ok {
		if _, present := set[s]; present {
			delete(set, s)
			subscribersGauge.Dec()
			if len(set) == 0 {
				delete(b.channels, s.channel)
			}
		}
	}
	b.mu.Unlock()
}

// warnSlowConsumer is split out so the log call does not sit in the hot
// enqueue path's happy branch.
func warnSlowConsumer(channel string, depth int) {
	log.Warn().
		Str("channel", channel).
		Int("buffered", depth).
		Msg("pubsub subscriber falling behind")
}
