// Package delivery sends replies with the reply token first and falls back
// to a single push when the token is no longer usable.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"subsidy-intake-be/internal/metrics"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/pkg/line"
)

const module = "Delivery"

var ErrDeliveryFailure = errors.New("delivery failed")

// Sender is the subset of the Messaging API the dispatcher needs
type Sender interface {
	Reply(ctx context.Context, replyToken string, messages ...line.Message) error
	Push(ctx context.Context, to string, messages ...line.Message) error
}

type Dispatcher struct {
	sender Sender
	logger logger.ILogger
}

func NewDispatcher(sender Sender, log logger.ILogger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: log}
}

// Deliver never retries more than once. The returned error is for callers
// that want to record it; the conversation flow does not depend on it.
func (d *Dispatcher) Deliver(ctx context.Context, userID, replyToken string, messages ...line.Message) error {
	if d.sender == nil {
		d.logger.Warn(module, "Delivery disabled, message dropped", map[string]interface{}{"user_id": userID})
		return fmt.Errorf("%w: no sender configured", ErrDeliveryFailure)
	}

	if replyToken == "" {
		return d.push(ctx, userID, messages)
	}

	err := d.sender.Reply(ctx, replyToken, messages...)
	if err == nil {
		metrics.RecordDelivery("reply", true)
		return nil
	}
	metrics.RecordDelivery("reply", false)

	if !errors.Is(err, line.ErrInvalidReplyToken) {
		d.logger.Error(module, "Reply failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: reply: %v", ErrDeliveryFailure, err)
	}

	d.logger.Info(module, "Reply token rejected, falling back to push", map[string]interface{}{"user_id": userID})
	return d.push(ctx, userID, messages)
}

func (d *Dispatcher) push(ctx context.Context, userID string, messages []line.Message) error {
	if err := d.sender.Push(ctx, userID, messages...); err != nil {
		metrics.RecordDelivery("push", false)
		d.logger.Error(module, "Push failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: push: %v", ErrDeliveryFailure, err)
	}
	metrics.RecordDelivery("push", true)
	return nil
}
