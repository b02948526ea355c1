package core

import (
	"context"
	"sync"

	"github.com/avray/parley/internal/comms"
)

// broadcaster is a bounded multi-producer/multi-consumer event channel.
// Publishes go into a fixed-size ring and never block; each subscriber keeps
// its own cursor over the ring. A subscriber whose cursor falls out of the
// retained range loses the skipped events, gets a LagError once, and is
// resynced to the oldest retained event.
type broadcaster struct {
	mu       sync.Mutex
	capacity uint64
	ring     []comms.Event
	next     uint64 // sequence number of the next publish
	subs     map[*Subscription]struct{}
}

func newBroadcaster(capacity int) *broadcaster {
	return &broadcaster{
		capacity: uint64(capacity),
		ring:     make([]comms.Event, capacity),
		subs:     make(map[*Subscription]struct{}),
	}
}

// Send publishes to every live subscriber. It never blocks: a slow
// subscriber falls behind and eventually lags instead of stalling the
// publisher.
func (b *broadcaster) Send(ev comms.Event) {
	b.mu.Lock()
	b.ring[b.next%b.capacity] = ev
	b.next++
	for s := range b.subs {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

// Subscribe starts a subscription at the current head: it sees every event
// published after this call.
func (b *broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Subscription{
		b:      b,
		cursor: b.next,
		wake:   make(chan struct{}, 1),
	}
	b.subs[s] = struct{}{}
	return s
}

func (b *broadcaster) oldestRetained() uint64 {
	if b.next > b.capacity {
		return b.next - b.capacity
	}
	return 0
}

// Subscription is a single reader's view of a broadcaster. Not safe for
// concurrent Recv from multiple goroutines; each forwarding task owns one.
type Subscription struct {
	b      *broadcaster
	cursor uint64
	wake   chan struct{}
	closed bool
}

// Recv blocks until the next event, a lag, context cancellation, or Close.
// On lag it returns a *LagError and leaves the subscription positioned at
// the oldest retained event.
func (s *Subscription) Recv(ctx context.Context) (comms.Event, error) {
	for {
		s.b.mu.Lock()
		if s.closed {
			s.b.mu.Unlock()
			return nil, ErrSubscriptionClosed
		}
		if oldest := s.b.oldestRetained(); s.cursor < oldest {
			missed := oldest - s.cursor
			s.cursor = oldest
			s.b.mu.Unlock()
			return nil, &LagError{Missed: int(missed)}
		}
		if s.cursor < s.b.next {
			ev := s.b.ring[s.cursor%s.b.capacity]
			s.cursor++
			s.b.mu.Unlock()
			return ev, nil
		}
		s.b.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.wake:
		}
	}
}

// Close detaches the subscription. Idempotent.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	if !s.closed {
		s.closed = true
		delete(s.b.subs, s)
	}
	s.b.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
