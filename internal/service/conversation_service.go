package service

import (
	"context"
	"fmt"

	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/metrics"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/line"
	"subsidy-intake-be/pkg/message"
	"subsidy-intake-be/pkg/retrieval"
	"subsidy-intake-be/pkg/selection"
	"subsidy-intake-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const conversationModule = "Conversation"

// MessagePipeline handles inbound text
type MessagePipeline interface {
	HandleMessage(ctx context.Context, userID, text string) (*retrieval.Outcome, error)
}

// CallbackResolver handles postback selections
type CallbackResolver interface {
	Resolve(ctx context.Context, userID, data string) (*selection.Result, error)
}

// Deliverer sends the reply for one turn
type Deliverer interface {
	Deliver(ctx context.Context, userID, replyToken string, messages ...line.Message) error
}

// Turn is the handled result of one inbound event
type Turn struct {
	Kind      store.OutcomeKind
	Messages  []line.Message
	Delivered bool
}

type IConversationService interface {
	HandleEvent(ctx context.Context, event dto.WebhookEvent) *Turn
}

type conversationService struct {
	pipeline  MessagePipeline
	resolver  CallbackResolver
	factory   *message.Factory
	deliverer Deliverer
	logger    logger.ILogger
	audit     logger.ILogger
}

// NewConversationService routes events. audit receives one entry per
// reply-bearing turn and may be the same logger as log.
func NewConversationService(
	pipeline MessagePipeline,
	resolver CallbackResolver,
	factory *message.Factory,
	deliverer Deliverer,
	log logger.ILogger,
	audit logger.ILogger,
) IConversationService {
	return &conversationService{
		pipeline:  pipeline,
		resolver:  resolver,
		factory:   factory,
		deliverer: deliverer,
		logger:    log,
		audit:     audit,
	}
}

// HandleEvent decides and delivers the reply for one event. State is read
// from the session store on every call, so concurrent calls are safe.
func (s *conversationService) HandleEvent(ctx context.Context, event dto.WebhookEvent) (turn *Turn) {
	ctx, span := otel.Tracer("conversation").Start(ctx, "ConversationService.HandleEvent")
	defer span.End()

	userID := event.Source.UserId
	span.SetAttributes(attribute.String("event.type", event.Type))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(conversationModule, "Recovered from panic", map[string]interface{}{
				"user_id": userID,
				"panic":   fmt.Sprint(r),
			})
			span.SetStatus(codes.Error, "panic")
			turn = &Turn{Kind: store.OutcomeError}
			metrics.RecordTurn(string(turn.Kind))
		}
	}()

	turn = s.decide(ctx, userID, event)
	span.SetAttributes(attribute.String("outcome", string(turn.Kind)))

	if turn.Kind.Replies() && len(turn.Messages) > 0 {
		err := s.deliverer.Deliver(ctx, userID, event.ReplyToken, turn.Messages...)
		turn.Delivered = err == nil
		s.audit.Info(conversationModule, "Turn delivered", map[string]interface{}{
			"user_id":   userID,
			"event_id":  event.WebhookEventId,
			"outcome":   string(turn.Kind),
			"delivered": turn.Delivered,
		})
	}

	metrics.RecordTurn(string(turn.Kind))
	return turn
}

func (s *conversationService) decide(ctx context.Context, userID string, event dto.WebhookEvent) *Turn {
	if userID == "" {
		return &Turn{Kind: store.OutcomeIgnored}
	}

	if text, ok := event.TextContent(); ok {
		return s.handleText(ctx, userID, text)
	}
	if data, ok := event.PostbackData(); ok {
		return s.handlePostback(ctx, userID, data)
	}

	s.logger.Debug(conversationModule, "Ignoring event", map[string]interface{}{
		"user_id": userID,
		"type":    event.Type,
	})
	return &Turn{Kind: store.OutcomeIgnored}
}

func (s *conversationService) handleText(ctx context.Context, userID, text string) *Turn {
	outcome, err := s.pipeline.HandleMessage(ctx, userID, text)
	if err != nil {
		s.logger.Error(conversationModule, "Message pipeline failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &Turn{Kind: store.OutcomeError, Messages: s.factory.GenericError()}
	}

	switch outcome.Kind {
	case store.OutcomeSuppressed:
		return &Turn{Kind: outcome.Kind}
	case store.OutcomePresented:
		return &Turn{Kind: outcome.Kind, Messages: s.factory.Candidates(outcome.Candidates)}
	default:
		return &Turn{Kind: outcome.Kind, Messages: s.factory.Text(outcome.Text)}
	}
}

func (s *conversationService) handlePostback(ctx context.Context, userID, data string) *Turn {
	result, err := s.resolver.Resolve(ctx, userID, data)
	if err != nil {
		s.logger.Error(conversationModule, "Selection failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &Turn{Kind: store.OutcomeError, Messages: s.factory.GenericError()}
	}

	if !result.Success && result.Reason != nil {
		s.logger.Info(conversationModule, "Selection rejected", map[string]interface{}{
			"user_id": userID,
			"reason":  result.Reason.Error(),
		})
	}
	return &Turn{Kind: store.OutcomeSelectionResult, Messages: s.factory.Text(result.Message)}
}
