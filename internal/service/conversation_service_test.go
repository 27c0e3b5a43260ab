package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"subsidy-intake-be/internal/constant"
	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/repository/contract"
	"subsidy-intake-be/internal/repository/memory"
	"subsidy-intake-be/pkg/delivery"
	"subsidy-intake-be/pkg/line"
	"subsidy-intake-be/pkg/message"
	"subsidy-intake-be/pkg/relevance"
	"subsidy-intake-be/pkg/retrieval"
	"subsidy-intake-be/pkg/selection"
	"subsidy-intake-be/pkg/similarity"
	"subsidy-intake-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct{ relevant bool }

func (g stubGate) Assess(ctx context.Context, text string) relevance.Assessment {
	if g.relevant {
		return relevance.Assessment{Score: 5, IsRelevant: true}
	}
	return relevance.Assessment{Score: 1}
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (e stubEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return e.vector, e.err
}

type sentMessage struct {
	path     string
	target   string
	messages []line.Message
}

type stubSender struct {
	replyErr error
	sent     []sentMessage
}

func (s *stubSender) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	s.sent = append(s.sent, sentMessage{"reply", replyToken, messages})
	return s.replyErr
}

func (s *stubSender) Push(ctx context.Context, to string, messages ...line.Message) error {
	s.sent = append(s.sent, sentMessage{"push", to, messages})
	return nil
}

type panickingPipeline struct{}

func (panickingPipeline) HandleMessage(ctx context.Context, userID, text string) (*retrieval.Outcome, error) {
	panic("nil map")
}

type harness struct {
	sessions contract.SessionRepository
	sender   *stubSender
	svc      IConversationService
}

func newHarness(t *testing.T, gate stubGate, embedder stubEmbedder, corpus []store.Candidate) *harness {
	t.Helper()
	log := logger.NewNopLogger()
	sessions := memory.NewSessionRepository(time.Hour)
	sender := &stubSender{}

	orch := retrieval.NewOrchestrator(
		sessions, gate, embedder,
		similarity.NewIndex(corpus, log),
		nil,
		retrieval.Config{TopN: 3, HandoffTTL: 30 * time.Second},
		log,
	)
	resolver := selection.NewResolver(sessions, nil, log)
	svc := NewConversationService(orch, resolver, message.NewFactory(), delivery.NewDispatcher(sender, log), log, log)

	return &harness{sessions: sessions, sender: sender, svc: svc}
}

var testCorpus = []store.Candidate{
	{ID: "s1", Name: "Solar Panel Grant", Vector: []float32{1, 0}},
	{ID: "s2", Name: "Compost Bin Rebate", Vector: []float32{0.6, 0.8}},
}

func textEvent(userID, token, text string) dto.WebhookEvent {
	return dto.WebhookEvent{
		Type:       dto.EventTypeMessage,
		ReplyToken: token,
		Source:     dto.WebhookSource{Type: "user", UserId: userID},
		Message:    &dto.WebhookMessage{Id: "m1", Type: dto.MessageTypeText, Text: text},
	}
}

func postbackEvent(userID, token, data string) dto.WebhookEvent {
	return dto.WebhookEvent{
		Type:       dto.EventTypePostback,
		ReplyToken: token,
		Source:     dto.WebhookSource{Type: "user", UserId: userID},
		Postback:   &dto.WebhookPostback{Data: data},
	}
}

func TestPresentThenSelect(t *testing.T) {
	h := newHarness(t, stubGate{relevant: true}, stubEmbedder{vector: []float32{1, 0}}, testCorpus)
	ctx := context.Background()

	turn := h.svc.HandleEvent(ctx, textEvent("U1", "rt-1", "solar grants?"))
	assert.Equal(t, store.OutcomePresented, turn.Kind)
	assert.True(t, turn.Delivered)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "reply", h.sender.sent[0].path)
	_, isCarousel := h.sender.sent[0].messages[0].(line.FlexMessage)
	assert.True(t, isCarousel)

	turn = h.svc.HandleEvent(ctx, postbackEvent("U1", "rt-2", selection.EncodeSelect("s2", "Compost Bin Rebate")))
	assert.Equal(t, store.OutcomeSelectionResult, turn.Kind)
	require.Len(t, turn.Messages, 1)
	assert.Contains(t, turn.Messages[0].(line.TextMessage).Text, "Compost Bin Rebate")

	session, err := h.sessions.Get(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "s2", session.Selection.CandidateID)
}

func TestIrrelevantMessageSendsNothing(t *testing.T) {
	h := newHarness(t, stubGate{relevant: false}, stubEmbedder{vector: []float32{1, 0}}, testCorpus)

	turn := h.svc.HandleEvent(context.Background(), textEvent("U1", "rt", "hi"))

	assert.Equal(t, store.OutcomeSuppressed, turn.Kind)
	assert.Empty(t, turn.Messages)
	assert.Empty(t, h.sender.sent)
}

func TestIgnoredEvents(t *testing.T) {
	h := newHarness(t, stubGate{relevant: true}, stubEmbedder{vector: []float32{1, 0}}, testCorpus)

	sticker := textEvent("U1", "rt", "")
	sticker.Message.Type = "sticker"
	follow := dto.WebhookEvent{Type: "follow", ReplyToken: "rt", Source: dto.WebhookSource{UserId: "U1"}}
	anonymous := textEvent("", "rt", "solar")

	for _, event := range []dto.WebhookEvent{sticker, follow, anonymous} {
		turn := h.svc.HandleEvent(context.Background(), event)
		assert.Equal(t, store.OutcomeIgnored, turn.Kind)
	}
	assert.Empty(t, h.sender.sent)
}

func TestEmbeddingFailureRepliesWithGenericError(t *testing.T) {
	h := newHarness(t, stubGate{relevant: true}, stubEmbedder{err: errors.New("quota")}, testCorpus)

	turn := h.svc.HandleEvent(context.Background(), textEvent("U1", "rt", "solar"))

	assert.Equal(t, store.OutcomeError, turn.Kind)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, line.NewTextMessage(constant.GenericErrorMessage), h.sender.sent[0].messages[0])
}

func TestExpiredReplyTokenFallsBackToPush(t *testing.T) {
	h := newHarness(t, stubGate{relevant: true}, stubEmbedder{vector: []float32{1, 0}}, nil)
	h.sender.replyErr = &line.APIError{StatusCode: 400, Message: "Invalid reply token"}

	turn := h.svc.HandleEvent(context.Background(), textEvent("U1", "stale", "solar"))

	assert.Equal(t, store.OutcomeNotFound, turn.Kind)
	assert.True(t, turn.Delivered)
	require.Len(t, h.sender.sent, 2)
	assert.Equal(t, "push", h.sender.sent[1].path)
	assert.Equal(t, "U1", h.sender.sent[1].target)
}

func TestCancelReplies(t *testing.T) {
	h := newHarness(t, stubGate{relevant: true}, stubEmbedder{vector: []float32{1, 0}}, testCorpus)

	turn := h.svc.HandleEvent(context.Background(), postbackEvent("U1", "rt", selection.EncodeCancel()))

	assert.Equal(t, store.OutcomeSelectionResult, turn.Kind)
	assert.Equal(t, []line.Message{line.NewTextMessage(constant.CancelMessage)}, turn.Messages)
}

func TestPanicBecomesErrorTurn(t *testing.T) {
	log := logger.NewNopLogger()
	sender := &stubSender{}
	svc := NewConversationService(panickingPipeline{}, nil, message.NewFactory(), delivery.NewDispatcher(sender, log), log, log)

	var turn *Turn
	assert.NotPanics(t, func() {
		turn = svc.HandleEvent(context.Background(), textEvent("U1", "rt", "solar"))
	})
	assert.Equal(t, store.OutcomeError, turn.Kind)
}
