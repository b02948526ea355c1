package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avray/parley/internal/comms"
)

func TestBroadcast_DeliversInPublishOrder(t *testing.T) {
	b := newBroadcaster(8)
	sub := b.Subscribe()
	defer sub.Close()

	for i := 0; i < 5; i++ {
		b.Send(comms.NewUserMessage("general", "alice", fmt.Sprintf("m%d", i)))
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ev, err := sub.Recv(ctx)
		require.NoError(t, err)
		msg, ok := ev.(comms.UserMessageEvent)
		require.True(t, ok)
		require.Equal(t, fmt.Sprintf("m%d", i), msg.Content)
	}
}

func TestBroadcast_SubscriberOnlySeesEventsAfterSubscribe(t *testing.T) {
	b := newBroadcaster(8)
	b.Send(comms.NewUserMessage("general", "alice", "before"))

	sub := b.Subscribe()
	defer sub.Close()
	b.Send(comms.NewUserMessage("general", "alice", "after"))

	ev, err := sub.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, "after", ev.(comms.UserMessageEvent).Content)
}

func TestBroadcast_LagReportsMissedAndResyncs(t *testing.T) {
	b := newBroadcaster(4)
	sub := b.Subscribe()
	defer sub.Close()

	// 10 publishes into a ring of 4: the oldest 6 are gone.
	for i := 0; i < 10; i++ {
		b.Send(comms.NewUserMessage("general", "alice", fmt.Sprintf("m%d", i)))
	}

	ctx := context.Background()
	_, err := sub.Recv(ctx)
	var lag *LagError
	require.ErrorAs(t, err, &lag)
	require.Equal(t, 6, lag.Missed)

	// After the lag the subscription resumes at the oldest retained event.
	ev, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, "m6", ev.(comms.UserMessageEvent).Content)

	for _, want := range []string{"m7", "m8", "m9"} {
		ev, err = sub.Recv(ctx)
		require.NoError(t, err)
		require.Equal(t, want, ev.(comms.UserMessageEvent).Content)
	}
}

func TestBroadcast_RecvHonorsContext(t *testing.T) {
	b := newBroadcaster(4)
	sub := b.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Recv(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBroadcast_RecvAfterClose(t *testing.T) {
	b := newBroadcaster(4)
	sub := b.Subscribe()
	sub.Close()

	_, err := sub.Recv(context.Background())
	require.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestBroadcast_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := newBroadcaster(4)
	sub := b.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Send(comms.NewUserMessage("general", "alice", "x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked by a subscriber that never reads")
	}
}
