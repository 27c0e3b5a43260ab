package controller

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/pkg/logger"
	"subsidy-intake-be/internal/pkg/serverutils"
	"subsidy-intake-be/internal/repository/memory"
	"subsidy-intake-be/internal/service"
	"subsidy-intake-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConversation struct {
	mu     sync.Mutex
	events []dto.WebhookEvent
	delay  time.Duration
}

func (r *recordingConversation) HandleEvent(ctx context.Context, event dto.WebhookEvent) *service.Turn {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return &service.Turn{Kind: store.OutcomeIgnored}
}

func newApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(logger.NewNopLogger()))
	register(app)
	return app
}

const secret = "channel-secret"

func post(t *testing.T, app *fiber.App, body string, sign bool) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/callback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		req.Header.Set(serverutils.SignatureHeader, serverutils.ComputeSignature(secret, []byte(body)))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestCallbackDispatchesEveryEventBeforeAnswering(t *testing.T) {
	conv := &recordingConversation{delay: 20 * time.Millisecond}
	ctrl := NewWebhookController(conv, secret, true, 2)
	app := newApp(ctrl.RegisterRoutes)

	body := `{"destination":"Ubot","events":[
		{"type":"message","replyToken":"r1","source":{"type":"user","userId":"U1"},"message":{"id":"1","type":"text","text":"solar"}},
		{"type":"postback","replyToken":"r2","source":{"type":"user","userId":"U2"},"postback":{"data":"action=cancel"}},
		{"type":"follow","replyToken":"r3","source":{"type":"user","userId":"U3"}}
	]}`

	status, decoded := post(t, app, body, true)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", decoded["status"])

	conv.mu.Lock()
	defer conv.mu.Unlock()
	require.Len(t, conv.events, 3)
	tokens := []string{conv.events[0].ReplyToken, conv.events[1].ReplyToken, conv.events[2].ReplyToken}
	sort.Strings(tokens)
	assert.Equal(t, []string{"r1", "r2", "r3"}, tokens)
}

func TestCallbackRejections(t *testing.T) {
	tests := []struct {
		name        string
		lineEnabled bool
		body        string
		sign        bool
		want        int
	}{
		{"bad signature", true, `{"events":[]}`, false, fiber.StatusUnauthorized},
		{"missing events", true, `{"destination":"Ubot"}`, true, fiber.StatusBadRequest},
		{"malformed json", true, `{"events":`, true, fiber.StatusBadRequest},
		{"line disabled", false, `{"events":[]}`, true, fiber.StatusServiceUnavailable},
		{"verification ping", true, `{"events":[]}`, true, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &recordingConversation{}
			app := newApp(NewWebhookController(conv, secret, tt.lineEnabled, 0).RegisterRoutes)

			status, _ := post(t, app, tt.body, tt.sign)
			assert.Equal(t, tt.want, status)
			assert.Empty(t, conv.events)
		})
	}
}

func TestHealth(t *testing.T) {
	app := newApp(NewWebhookController(&recordingConversation{}, "", false, 42).RegisterRoutes)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "disabled", health.LineBot)
	assert.Equal(t, 42, health.Corpus)
}

func adminToken(t *testing.T, key string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "ops",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestAdminSessionAPI(t *testing.T) {
	sessions := memory.NewSessionRepository(time.Hour)
	ctx := context.Background()
	require.NoError(t, sessions.StartOrRefreshHandoff(ctx, "U1", 30*time.Second))
	require.NoError(t, sessions.RecordOfferedCandidates(ctx, "U1", []store.RankedResult{{CandidateID: "s1", CandidateName: "Solar", Similarity: 0.9}}))

	ctrl := NewSessionController(service.NewSessionService(sessions, 30*time.Second), "admin-secret")
	app := newApp(func(r fiber.Router) { ctrl.RegisterRoutes(r.Group("/api")) })

	do := func(method, path, auth string) (int, serverutils.BaseResponse[dto.SessionResponse]) {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		var body serverutils.BaseResponse[dto.SessionResponse]
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body
	}

	auth := adminToken(t, "admin-secret")

	status, _ := do("GET", "/api/admin/v1/sessions/U1", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := do("GET", "/api/admin/v1/sessions/U1", auth)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "U1", body.Data.UserId)
	assert.True(t, body.Data.Handoff.Active)
	assert.True(t, body.Data.Handoff.WindowOpen)
	require.Len(t, body.Data.Selection.OfferedFrom, 1)
	assert.Equal(t, "s1", body.Data.Selection.OfferedFrom[0].CandidateID)

	status, _ = do("DELETE", "/api/admin/v1/sessions/U1", auth)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do("GET", "/api/admin/v1/sessions/U1", auth)
	assert.Equal(t, fiber.StatusNotFound, status)
}
