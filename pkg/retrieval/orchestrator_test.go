package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/internal/repository/contract/contracttest"
	"subsidy-intake-be/internal/repository/memory"
	"subsidy-intake-be/pkg/events"
	"subsidy-intake-be/pkg/relevance"
	"subsidy-intake-be/pkg/similarity"
	"subsidy-intake-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGate struct {
	relevant bool
	calls    int
}

func (g *fakeGate) Assess(ctx context.Context, text string) relevance.Assessment {
	g.calls++
	if g.relevant {
		return relevance.Assessment{Score: 4, IsRelevant: true}
	}
	return relevance.Assessment{Score: 1, IsRelevant: false}
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
	tasks  []string
}

func (e *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	e.tasks = append(e.tasks, taskType)
	return e.vector, e.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

// brokenStore fails the flagged calls and delegates the rest
type brokenStore struct {
	contract.SessionRepository
	failTTL, failTouch, failStart, failRecord bool
}

var errDown = errors.New("connection refused")

func (b *brokenStore) IsHandoffActiveWithinTTL(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	if b.failTTL {
		return false, errDown
	}
	return b.SessionRepository.IsHandoffActiveWithinTTL(ctx, userID, ttl)
}

func (b *brokenStore) TouchActivity(ctx context.Context, userID string) error {
	if b.failTouch {
		return errDown
	}
	return b.SessionRepository.TouchActivity(ctx, userID)
}

func (b *brokenStore) StartOrRefreshHandoff(ctx context.Context, userID string, ttl time.Duration) error {
	if b.failStart {
		return errDown
	}
	return b.SessionRepository.StartOrRefreshHandoff(ctx, userID, ttl)
}

func (b *brokenStore) RecordOfferedCandidates(ctx context.Context, userID string, candidates []store.RankedResult) error {
	if b.failRecord {
		return errDown
	}
	return b.SessionRepository.RecordOfferedCandidates(ctx, userID, candidates)
}

var corpus = []store.Candidate{
	{ID: "s1", Name: "Solar Panel Grant", Vector: []float32{1, 0}},
	{ID: "s2", Name: "Compost Bin Rebate", Vector: []float32{0, 1}},
}

type fixture struct {
	clock     *contracttest.Clock
	sessions  contract.SessionRepository
	gate      *fakeGate
	embedder  *fakeEmbedder
	publisher *recordingPublisher
	orch      *Orchestrator
}

func newFixture(t *testing.T, entries []store.Candidate, wrap func(contract.SessionRepository) contract.SessionRepository) *fixture {
	t.Helper()
	clock := contracttest.NewClock()
	var sessions contract.SessionRepository = memory.NewSessionRepositoryWithClock(time.Hour, clock.Now)
	if wrap != nil {
		sessions = wrap(sessions)
	}

	f := &fixture{
		clock:     clock,
		sessions:  sessions,
		gate:      &fakeGate{relevant: true},
		embedder:  &fakeEmbedder{vector: []float32{1, 0}},
		publisher: &recordingPublisher{},
	}
	f.orch = NewOrchestrator(
		sessions,
		f.gate,
		f.embedder,
		similarity.NewIndex(entries, logger.NewNopLogger()),
		f.publisher,
		Config{TopN: 2, HandoffTTL: 30 * time.Second},
		logger.NewNopLogger(),
	)
	f.orch.now = clock.Now
	return f
}

func TestRelevantMessageIsPresented(t *testing.T) {
	f := newFixture(t, corpus, nil)
	ctx := context.Background()

	outcome, err := f.orch.HandleMessage(ctx, "U1", "Are there grants for solar panels?")
	require.NoError(t, err)

	assert.Equal(t, store.OutcomePresented, outcome.Kind)
	require.Len(t, outcome.Candidates, 2)
	assert.Equal(t, "s1", outcome.Candidates[0].CandidateID)
	assert.InDelta(t, 1.0, outcome.Candidates[0].Similarity, 1e-9)
	assert.Equal(t, "s2", outcome.Candidates[1].CandidateID)
	assert.InDelta(t, 0.0, outcome.Candidates[1].Similarity, 1e-9)
	assert.Equal(t, []string{"RETRIEVAL_QUERY"}, f.embedder.tasks)

	session, err := f.sessions.Get(ctx, "U1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, session.Handoff.Active)
	assert.Equal(t, outcome.Candidates, session.Selection.OfferedFrom)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.TypeHandoffStarted, f.publisher.events[0].EventType())
}

func TestIrrelevantMessageIsNeverEmbedded(t *testing.T) {
	f := newFixture(t, corpus, nil)
	f.gate.relevant = false

	outcome, err := f.orch.HandleMessage(context.Background(), "U1", "what's the weather")
	require.NoError(t, err)

	assert.Equal(t, store.OutcomeSuppressed, outcome.Kind)
	assert.Zero(t, f.embedder.calls)

	session, err := f.sessions.Get(context.Background(), "U1")
	require.NoError(t, err)
	assert.Nil(t, session, "an irrelevant message must not open a session")
}

func TestEmptyCorpusIsNotFound(t *testing.T) {
	f := newFixture(t, nil, nil)

	outcome, err := f.orch.HandleMessage(context.Background(), "U1", "solar grants")
	require.NoError(t, err)

	assert.Equal(t, store.OutcomeNotFound, outcome.Kind)
	assert.Equal(t, constant.NotFoundMessage, outcome.Text)
}

func TestSecondMessageInsideWindowIsPassthrough(t *testing.T) {
	f := newFixture(t, corpus, nil)
	ctx := context.Background()

	first, err := f.orch.HandleMessage(ctx, "U1", "solar grants")
	require.NoError(t, err)
	require.Equal(t, store.OutcomePresented, first.Kind)

	f.clock.Advance(10 * time.Second)
	f.gate.relevant = false
	gateCalls := f.gate.calls

	second, err := f.orch.HandleMessage(ctx, "U1", "hello?")
	require.NoError(t, err)

	assert.Equal(t, store.OutcomeHandoffPassthrough, second.Kind)
	assert.Equal(t, constant.HandoffMessage, second.Text)
	assert.Equal(t, gateCalls, f.gate.calls, "passthrough skips the relevance gate")

	session, err := f.sessions.Get(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, session.Handoff.LastActivityAt.Equal(f.clock.Now()))
}

func TestExpiredWindowGoesBackThroughTheGate(t *testing.T) {
	f := newFixture(t, corpus, nil)
	ctx := context.Background()

	_, err := f.orch.HandleMessage(ctx, "U1", "solar grants")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Second)
	f.gate.relevant = false

	outcome, err := f.orch.HandleMessage(ctx, "U1", "thanks")
	require.NoError(t, err)
	assert.Equal(t, store.OutcomeSuppressed, outcome.Kind)
}

func TestEmbeddingFailurePropagates(t *testing.T) {
	f := newFixture(t, corpus, nil)
	f.embedder.err = errors.New("quota exceeded")

	outcome, err := f.orch.HandleMessage(context.Background(), "U1", "solar grants")
	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, ErrEmbeddingFailure)
}

func TestStoreFailures(t *testing.T) {
	tests := []struct {
		name     string
		store    brokenStore
		primed   bool
		wantKind store.OutcomeKind
		wantErr  bool
	}{
		{name: "ttl read propagates", store: brokenStore{failTTL: true}, wantErr: true},
		{name: "touch is swallowed", store: brokenStore{failTouch: true}, primed: true, wantKind: store.OutcomeHandoffPassthrough},
		{name: "start is swallowed", store: brokenStore{failStart: true}, wantKind: store.OutcomePresented},
		{name: "record propagates", store: brokenStore{failRecord: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := tt.store
			f := newFixture(t, corpus, func(inner contract.SessionRepository) contract.SessionRepository {
				broken.SessionRepository = inner
				return &broken
			})
			if tt.primed {
				require.NoError(t, broken.SessionRepository.StartOrRefreshHandoff(context.Background(), "U1", 30*time.Second))
			}

			outcome, err := f.orch.HandleMessage(context.Background(), "U1", "solar grants")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, outcome)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, outcome.Kind)
		})
	}
}
