package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRelay struct {
	mu     sync.Mutex
	events []events.Event
	ids    []string
}

func (r *recordingRelay) Publish(ctx context.Context, msgID string, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.ids = append(r.ids, msgID)
	return nil
}

func (r *recordingRelay) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func TestPublishedEventsReachTheRelay(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	relay := &recordingRelay{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := NewConsumerService(pubSub, "test-topic", relay, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(pubSub, "test-topic")
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, publisher.Publish(ctx, events.SubsidySelected("U1", "s1", "Solar", at)))

	require.Eventually(t, func() bool { return len(relay.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	got := relay.snapshot()[0]
	assert.Equal(t, events.TypeSubsidySelected, got.EventType())
	assert.Equal(t, "s1", got.Payload()["candidate_id"])
	assert.True(t, got.Timestamp().Equal(at))
	relay.mu.Lock()
	defer relay.mu.Unlock()
	assert.NotEmpty(t, relay.ids[0])
}
