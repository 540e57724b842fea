package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civica/pkg/requestcontext"
)

func TestPublisherStampsMissingTimestamp(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(store)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	err := publisher.Emit(ctx, Event{
		Action:    ActionCredited,
		CitizenID: "c-1",
		Amount:    100,
	})
	require.NoError(t, err)

	events, err := publisher.List(ctx, "c-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, now.Equal(events[0].Timestamp), "timestamp should come from the request clock")
}

func TestQueueAndWorkerDeliverToSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := NewInMemoryStore()
	inbox := make(chan Event, 4)
	publisher := NewPublisher(NewQueue(inbox))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = NewWorker(sink, inbox).Run(ctx)
	}()

	for i := 0; i < 3; i++ {
		require.NoError(t, publisher.Emit(ctx, Event{
			Action:    ActionPayoutEarned,
			CitizenID: "c-2",
		}))
	}

	require.Eventually(t, func() bool {
		events, err := sink.ListByCitizen(ctx, "c-2")
		return err == nil && len(events) == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestQueueRejectsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := NewQueue(make(chan Event)) // unbuffered, nobody draining
	err := queue.Append(ctx, Event{Action: ActionDebited})
	assert.ErrorIs(t, err, context.Canceled)
}
