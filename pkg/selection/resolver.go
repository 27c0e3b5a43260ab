// Package selection resolves postback callbacks against the candidates a
// user was actually offered.
package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/events"
	"subsidy-intake-be/pkg/store"
)

const module = "SelectionResolver"

var (
	ErrCandidateNotOffered   = errors.New("candidate was not offered to this user")
	ErrUnknownCallbackAction = errors.New("unknown callback action")
)

// Result is what the user is told. Reason is set on failures and is never shown.
type Result struct {
	Success   bool
	Message   string
	Candidate *store.RankedResult
	Reason    error
}

type Resolver struct {
	sessions  contract.SessionRepository
	publisher events.Publisher
	logger    logger.ILogger
	now       func() time.Time
}

func NewResolver(sessions contract.SessionRepository, publisher events.Publisher, log logger.ILogger) *Resolver {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Resolver{
		sessions:  sessions,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Resolve applies one callback. A non-nil error means the store failed;
// every user mistake is reported through Result instead.
func (r *Resolver) Resolve(ctx context.Context, userID, data string) (*Result, error) {
	payload := ParsePayload(data)

	switch payload.Action {
	case ActionCancel:
		return r.cancel(ctx, userID)
	case ActionSelect:
		return r.selectCandidate(ctx, userID, payload)
	default:
		r.logger.Info(module, "Unrecognized callback", map[string]interface{}{
			"user_id": userID,
			"action":  payload.Action,
		})
		return &Result{
			Message: constant.UnrecognizedSelectionMessage,
			Reason:  fmt.Errorf("%w: %q", ErrUnknownCallbackAction, payload.Action),
		}, nil
	}
}

func (r *Resolver) cancel(ctx context.Context, userID string) (*Result, error) {
	if err := r.sessions.EndHandoff(ctx, userID); err != nil {
		return nil, fmt.Errorf("end handoff: %w", err)
	}
	r.publish(ctx, events.HandoffCancelled(userID, r.now()))
	return &Result{Success: true, Message: constant.CancelMessage}, nil
}

func (r *Resolver) selectCandidate(ctx context.Context, userID string, payload Payload) (*Result, error) {
	if payload.CandidateID == "" {
		return &Result{Message: constant.MissingCandidateMessage}, nil
	}

	offered, err := r.sessions.ResolveSelection(ctx, userID, payload.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("resolve selection: %w", err)
	}
	if offered == nil {
		r.logger.Warn(module, "Selection outside the offered set", map[string]interface{}{
			"user_id":      userID,
			"candidate_id": payload.CandidateID,
		})
		return &Result{
			Message: constant.CandidateNotFoundMessage,
			Reason:  fmt.Errorf("%w: %s", ErrCandidateNotOffered, payload.CandidateID),
		}, nil
	}

	if err := r.sessions.CommitSelection(ctx, userID, *offered); err != nil {
		return nil, fmt.Errorf("commit selection: %w", err)
	}

	r.publish(ctx, events.SubsidySelected(userID, offered.CandidateID, offered.CandidateName, r.now()))

	return &Result{
		Success:   true,
		Message:   fmt.Sprintf(constant.SelectedMessageFormat, offered.CandidateName),
		Candidate: offered,
	}, nil
}

func (r *Resolver) publish(ctx context.Context, event events.Event) {
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn(module, "Publish event failed", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
