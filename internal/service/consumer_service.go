package service

import (
	"context"
	"encoding/json"

	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const consumerModule = "EventConsumer"

// EventRelay forwards events to an external bus such as NATS
type EventRelay interface {
	Publish(ctx context.Context, msgID string, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	relay     EventRelay
	logger    logger.ILogger
}

// NewConsumerService relays in-process events. A nil relay only logs them.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	relay EventRelay,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		relay:     relay,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error(consumerModule, "Dropping malformed event", map[string]interface{}{
			"uuid":  msg.UUID,
			"error": err.Error(),
		})
		msg.Ack() // a retry can never succeed
		return
	}

	details := map[string]interface{}{
		"uuid": msg.UUID,
		"type": event.Type,
	}

	if cs.relay == nil {
		cs.logger.Info(consumerModule, "Event recorded", details)
		msg.Ack()
		return
	}

	if err := cs.relay.Publish(ctx, msg.UUID, event); err != nil {
		details["error"] = err.Error()
		// events are best-effort, a nack would redeliver in a tight loop while NATS is down
		cs.logger.Warn(consumerModule, "Relay failed, event dropped", details)
		msg.Ack()
		return
	}

	cs.logger.Debug(consumerModule, "Event relayed", details)
	msg.Ack()
}
