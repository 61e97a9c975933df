package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"
)

// next runs Next on its own goroutine and reports the result, so tests
// can observe whether a call resolves or stays parked.
type nextResult struct {
	payload any
	err     error
}

func nextAsync(s *Subscription, ctx context.Context) <-chan nextResult {
	ch := make(chan nextResult, 1)
	go func() {
		p, err := s.Next(ctx)
		ch <- nextResult{p, err}
	}()
	return ch
}

func TestPublish_NoSubscribersIsNotAnError(t *testing.T) {
	b := New()
	b.Publish("comment_added:s1", "dropped")
	if n := b.Subscribers("comment_added:s1"); n != 0 {
		t.Fatalf("subscribers = %d; want 0", n)
	}
}

func TestFanOut_TwoSubscribersEachExactlyOnce(t *testing.T) {
	b := New()
	ctx := context.Background()
	s1 := b.Subscribe("comment_added:s1")
	s2 := b.Subscribe("comment_added:s1")
	defer s1.Close()
	defer s2.Close()

	b.Publish("comment_added:s1", "c1")
	b.Publish("comment_added:s1", "c2")

	for _, s := range []*Subscription{s1, s2} {
		first, err := s.Next(ctx)
		if err != nil || first != "c1" {
			t.Fatalf("first = %v, %v; want c1", first, err)
		}
		second, err := s.Next(ctx)
		if err != nil || second != "c2" {
			t.Fatalf("second = %v, %v; want c2 (FIFO per subscriber)", second, err)
		}
	}
}

func TestIsolation_ChannelsDoNotCross(t *testing.T) {
	b := New()
	s1 := b.Subscribe("comment_added:s1")
	s2 := b.Subscribe("comment_added:s2")
	defer s1.Close()
	defer s2.Close()

	payload := map[string]string{"id": "c1", "text": "hi"}
	b.Publish("comment_added:s1", payload)

	got, err := s1.Next(context.Background())
	if err != nil {
		t.Fatalf("s1.Next: %v", err)
	}
	if m, ok := got.(map[string]string); !ok || m["id"] != "c1" || m["text"] != "hi" {
		t.Fatalf("s1 payload = %v", got)
	}

	// s2 must remain pending: nothing was published on its channel.
	ctx, cancel := context.WithCancel(context.Background())
	res := nextAsync(s2, ctx)
	select {
	case r := <-res:
		t.Fatalf("s2.Next resolved unexpectedly: %v, %v", r.payload, r.err)
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	if r := <-res; !errors.Is(r.err, context.Canceled) {
		t.Fatalf("cancelled Next returned %v; want context.Canceled", r.err)
	}
}

func TestNext_SuspendsUntilPublish(t *testing.T) {
	b := New()
	s := b.Subscribe("upvoted:s9")
	defer s.Close()

	res := nextAsync(s, context.Background())
	select {
	case r := <-res:
		t.Fatalf("Next resolved before publish: %v, %v", r.payload, r.err)
	case <-time.After(30 * time.Millisecond):
	}

	b.Publish("upvoted:s9", 42)
	select {
	case r := <-res:
		if r.err != nil || r.payload != 42 {
			t.Fatalf("Next = %v, %v; want 42", r.payload, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not resolve after publish")
	}
}

func TestNoReplay_EventsBeforeSubscribeAreInvisible(t *testing.T) {
	b := New()
	b.Publish("comment_added:s1", "early")

	s := b.Subscribe("comment_added:s1")
	defer s.Close()
	b.Publish("comment_added:s1", "late")

	got, err := s.Next(context.Background())
	if err != nil || got != "late" {
		t.Fatalf("Next = %v, %v; want late (no replay)", got, err)
	}
}

func TestClose_DeregistersAndResolvesParkedNext(t *testing.T) {
	b := New()
	s := b.Subscribe("comment_added:s1")
	if n := b.Subscribers("comment_added:s1"); n != 1 {
		t.Fatalf("subscribers = %d; want 1", n)
	}

	res := nextAsync(s, context.Background())
	time.Sleep(10 * time.Millisecond) // let Next park

	s.Close()
	select {
	case r := <-res:
		if !errors.Is(r.err, ErrClosed) {
			t.Fatalf("parked Next returned %v; want ErrClosed", r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("parked Next leaked after Close")
	}

	// Registry shrank by exactly one and publish still succeeds.
	if n := b.Subscribers("comment_added:s1"); n != 0 {
		t.Fatalf("subscribers after close = %d; want 0", n)
	}
	b.Publish("comment_added:s1", "after-close")
	if _, err := s.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("Next after close = %v; want ErrClosed", err)
	}
}

func TestClose_DrainsBufferedEventsFirst(t *testing.T) {
	b := New()
	s := b.Subscribe("comment_added:s1")
	b.Publish("comment_added:s1", "c1")
	b.Publish("comment_added:s1", "c2")
	s.Close()

	ctx := context.Background()
	if got, err := s.Next(ctx); err != nil || got != "c1" {
		t.Fatalf("Next = %v, %v; want buffered c1", got, err)
	}
	if got, err := s.Next(ctx); err != nil || got != "c2" {
		t.Fatalf("Next = %v, %v; want buffered c2", got, err)
	}
	if _, err := s.Next(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("drained Next = %v; want ErrClosed", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	b := New()
	s := b.Subscribe("c")
	s.Close()
	s.Close()
	if n := b.Subscribers("c"); n != 0 {
		t.Fatalf("subscribers = %d; want 0", n)
	}
}

func TestContextCancel_ClosesSubscription(t *testing.T) {
	b := New()
	s := b.Subscribe("c")
	ctx, cancel := context.WithCancel(context.Background())
	res := nextAsync(s, ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()
	if r := <-res; !errors.Is(r.err, context.Canceled) {
		t.Fatalf("Next = %v; want context.Canceled", r.err)
	}
	// The registry entry must not leak when the transport goes away.
	if n := b.Subscribers("c"); n != 0 {
		t.Fatalf("subscribers after ctx cancel = %d; want 0", n)
	}
}

func TestChannelEntryRemovedWithLastSubscriber(t *testing.T) {
	b := New()
	s1 := b.Subscribe("c")
	s2 := b.Subscribe("c")
	s1.Close()
	if n := b.Subscribers("c"); n != 1 {
		t.Fatalf("subscribers = %d; want 1", n)
	}
	s2.Close()
	b.mu.RLock()
	_, present := b.channels["c"]
	b.mu.RUnlock()
	if present {
		t.Fatal("empty channel entry retained in registry")
	}
}

func TestPublish_ManyEventsStayOrdered(t *testing.T) {
	b := New(WithWarnDepth(16))
	s := b.Subscribe("c")
	defer s.Close()

	const n = 100
	for i := 0; i < n; i++ {
		b.Publish("c", i)
	}
	ctx := context.Background()
	for i := 0; i < n; i++ {
		got, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if got != i {
			t.Fatalf("out of order: got %v at position %d", got, i)
		}
	}
}
