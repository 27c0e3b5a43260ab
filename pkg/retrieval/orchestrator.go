// Package retrieval turns one inbound text message into a pipeline outcome:
// handoff passthrough, a silent drop, "not found", or a ranked candidate list.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/pkg/embedding"
	"subsidy-intake-be/pkg/events"
	"subsidy-intake-be/pkg/relevance"
	"subsidy-intake-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const module = "RetrievalOrchestrator"

// ErrEmbeddingFailure wraps any error of the query embedding call
var ErrEmbeddingFailure = errors.New("query embedding failed")

// Gate decides whether a message deserves retrieval
type Gate interface {
	Assess(ctx context.Context, text string) relevance.Assessment
}

// Ranker orders the corpus against a query vector
type Ranker interface {
	Rank(query []float32, topN int) []store.RankedResult
}

type Config struct {
	TopN       int
	HandoffTTL time.Duration
}

// Outcome is the result of HandleMessage. Text is set for passthrough and
// not-found outcomes, Candidates only for Presented.
type Outcome struct {
	Kind       store.OutcomeKind
	Text       string
	Candidates []store.RankedResult
}

type Orchestrator struct {
	sessions  contract.SessionRepository
	gate      Gate
	embedder  embedding.EmbeddingProvider
	ranker    Ranker
	publisher events.Publisher
	cfg       Config
	logger    logger.ILogger
	now       func() time.Time
}

func NewOrchestrator(
	sessions contract.SessionRepository,
	gate Gate,
	embedder embedding.EmbeddingProvider,
	ranker Ranker,
	publisher events.Publisher,
	cfg Config,
	log logger.ILogger,
) *Orchestrator {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Orchestrator{
		sessions:  sessions,
		gate:      gate,
		embedder:  embedder,
		ranker:    ranker,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
		now:       time.Now,
	}
}

// HandleMessage runs the relevance-gated retrieval pipeline for one message.
// The relevance verdict is always known before any embedding is requested.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, text string) (*Outcome, error) {
	ctx, span := otel.Tracer("retrieval").Start(ctx, "Orchestrator.HandleMessage")
	defer span.End()

	active, err := o.sessions.IsHandoffActiveWithinTTL(ctx, userID, o.cfg.HandoffTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ttl check failed")
		return nil, fmt.Errorf("check handoff window: %w", err)
	}

	if active {
		if err := o.sessions.TouchActivity(ctx, userID); err != nil {
			o.logger.Warn(module, "Touch activity failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		span.SetAttributes(attribute.String("outcome", string(store.OutcomeHandoffPassthrough)))
		return &Outcome{Kind: store.OutcomeHandoffPassthrough, Text: constant.HandoffMessage}, nil
	}

	verdict := o.gate.Assess(ctx, text)
	span.SetAttributes(attribute.Int("relevance.score", verdict.Score))
	if !verdict.IsRelevant {
		return &Outcome{Kind: store.OutcomeSuppressed}, nil
	}

	o.startHandoff(ctx, userID)

	vector, err := o.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrEmbeddingFailure, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, err
	}

	results := o.ranker.Rank(vector, o.cfg.TopN)
	span.SetAttributes(attribute.Int("candidates", len(results)))
	if len(results) == 0 {
		return &Outcome{Kind: store.OutcomeNotFound, Text: constant.NotFoundMessage}, nil
	}

	if err := o.sessions.RecordOfferedCandidates(ctx, userID, results); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record offered failed")
		return nil, fmt.Errorf("record offered candidates: %w", err)
	}

	return &Outcome{Kind: store.OutcomePresented, Candidates: results}, nil
}

// startHandoff opens the debounce window. Failures only cost the window.
func (o *Orchestrator) startHandoff(ctx context.Context, userID string) {
	if err := o.sessions.StartOrRefreshHandoff(ctx, userID, o.cfg.HandoffTTL); err != nil {
		o.logger.Warn(module, "Start handoff failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	if err := o.publisher.Publish(ctx, events.HandoffStarted(userID, o.now())); err != nil {
		o.logger.Warn(module, "Publish handoff event failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
