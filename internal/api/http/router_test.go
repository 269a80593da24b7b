package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-chat/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-chat/internal/auth"
	"github.com/spec-kit/helpdesk-chat/internal/domain"
	"github.com/spec-kit/helpdesk-chat/internal/events"
	"github.com/spec-kit/helpdesk-chat/internal/llm"
	"github.com/spec-kit/helpdesk-chat/internal/observability"
	"github.com/spec-kit/helpdesk-chat/internal/repository"
	"github.com/spec-kit/helpdesk-chat/internal/service"
)

const screenshot = "data:image/png;base64,iVBORw0KGgo="

type stubOracle struct {
	reply string
	err   error
	calls int
}

func (s *stubOracle) Complete(context.Context, llm.Prompt) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string) string { return "Error 0x80070005" }

type stubTickets struct {
	created []domain.ChatbotTicket
}

func (s *stubTickets) Create(_ context.Context, t *domain.ChatbotTicket) error {
	t.ID = "11111111-2222-3333-4444-555555555555"
	s.created = append(s.created, *t)
	return nil
}

func (s *stubTickets) GetByExternalKey(_ context.Context, key string) (*domain.ChatbotTicket, error) {
	for i := range s.created {
		if s.created[i].ExternalKey == key {
			return &s.created[i], nil
		}
	}
	return nil, errors.New("no rows in result set")
}

func (s *stubTickets) ListBySession(_ context.Context, sessionID string, _, _ int) ([]domain.ChatbotTicket, error) {
	out := []domain.ChatbotTicket{}
	for _, t := range s.created {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

type testServer struct {
	app     *fiber.App
	oracle  *stubOracle
	tickets *stubTickets
	metrics *observability.Metrics
	tokens  *auth.TokenManager
}

func newTestServer(t *testing.T, reply string, ticketStore bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	ts := &testServer{
		oracle:  &stubOracle{reply: reply},
		metrics: observability.NewMetrics(),
		tokens:  auth.NewTokenManager("test-secret", 5),
	}
	sessions := repository.NewMemorySessionRepository(0)
	dispatcher := events.NewInMemoryDispatcher(logger)

	var ticketRepo repository.TicketRepository
	if ticketStore {
		ts.tickets = &stubTickets{}
		ticketRepo = ts.tickets
	}
	ticketService := service.NewTicketService(ticketRepo, dispatcher, logger)
	ticketService.RegisterHandlers()

	chatService := service.NewChatService(service.ChatDependencies{
		Sessions:   sessions,
		Oracle:     ts.oracle,
		Analyzer:   stubAnalyzer{},
		Dispatcher: dispatcher,
		Metrics:    ts.metrics,
		Logger:     logger,
	})

	ts.app = fiber.New()
	RegisterMiddlewares(ts.app, logger, ts.metrics, 0)
	RegisterRoutes(ts.app, RouteConfig{
		System:         handlers.NewSystemHandler("gemini", ts.metrics),
		Health:         handlers.NewHealthHandler("helpdesk-chat", "test", sessions, nil, nil),
		Chat:           handlers.NewChatHandler(chatService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(ts.tokens),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, target, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t, "", false)

	status, body := ts.do(t, nethttp.MethodGet, "/", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "Helpdesk AI (Gemini) Chat is running 🚀", body["message"])
}

func TestChat_SolutionReply(t *testing.T) {
	ts := newTestServer(t, "```json\n{\"solution\":[\"Open the reset portal\"],\"ticket\":null,\"responseText\":\"Try this.\"}\n```", false)

	status, body := ts.do(t, nethttp.MethodPost, "/chat",
		`{"message":"my password is not working","session_id":"s1"}`, nil)

	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, []any{"Open the reset portal"}, body["solution"])
	assert.Contains(t, body, "ticket")
	assert.Nil(t, body["ticket"])
	assert.Equal(t, "Try this.", body["responseText"])
}

func TestChat_OracleFailureIsStill200(t *testing.T) {
	ts := newTestServer(t, "", false)
	ts.oracle.err = errors.New("upstream timeout")

	status, body := ts.do(t, nethttp.MethodPost, "/chat", `{"message":"vpn","session_id":"s1"}`, nil)

	assert.Equal(t, nethttp.StatusOK, status)
	assert.Nil(t, body["solution"])
	assert.Nil(t, body["ticket"])
	assert.Equal(t, domain.FallbackResponseText, body["responseText"])
}

func TestChat_RequestShapeErrors(t *testing.T) {
	ts := newTestServer(t, `{"responseText":"ok"}`, false)

	tests := []struct {
		name string
		body string
	}{
		{name: "bad json", body: `{"message":`},
		{name: "missing session", body: `{"message":"hi"}`},
		{name: "traversal session", body: `{"message":"hi","session_id":"../../etc/passwd"}`},
		{name: "nothing to say", body: `{"message":"","session_id":"s1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(t, nethttp.MethodPost, "/chat", tt.body, nil)
			assert.Equal(t, nethttp.StatusBadRequest, status)
			errBody, ok := body["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
		})
	}
	assert.Zero(t, ts.oracle.calls)
}

func TestHistory_UnknownSessionIsEmpty(t *testing.T) {
	ts := newTestServer(t, "", false)

	status, body := ts.do(t, nethttp.MethodGet, "/chat/history/never-seen", "", nil)

	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, []any{}, body["history"])
}

func TestHistory_RoundTrip(t *testing.T) {
	ts := newTestServer(t, `{"solution":null,"ticket":null,"responseText":"Which printer?"}`, false)

	_, _ = ts.do(t, nethttp.MethodPost, "/chat",
		`{"message":"printer broken","session_id":"s1","image_data":"`+screenshot+`"}`, nil)
	ts.oracle.reply = "this is not json"
	_, _ = ts.do(t, nethttp.MethodPost, "/chat", `{"message":"floor 3","session_id":"s1"}`, nil)

	status, body := ts.do(t, nethttp.MethodGet, "/chat/history/s1", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	history, ok := body["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 4)

	first := history[0].(map[string]any)
	assert.Equal(t, "human", first["type"])
	assert.Equal(t, []any{
		map[string]any{"type": "text", "text": "printer broken"},
		map[string]any{"type": "image_url", "url": screenshot},
	}, first["content"])

	second := history[1].(map[string]any)
	assert.Equal(t, "ai", second["type"])
	assert.Equal(t, "Which printer?", second["content"].(map[string]any)["responseText"])

	third := history[2].(map[string]any)
	assert.Equal(t, []any{map[string]any{"type": "text", "text": "floor 3"}}, third["content"])

	fourth := history[3].(map[string]any)
	assert.Equal(t, map[string]any{"responseText": service.UnreadableMessageText}, fourth["content"])
}

func TestHistory_InvalidSessionID(t *testing.T) {
	ts := newTestServer(t, "", false)

	status, _ := ts.do(t, nethttp.MethodGet, "/chat/history/bad%20id", "", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestTickets_RaisedTicketIsListed(t *testing.T) {
	ticket := `{"solution":null,"ticket":{"title":"Docking station dead","description":"No video through dock",
		"priority":"Medium","category":"Hardware","subcategory":"Dock","status":"Open","source":"Chatbot",
		"tags":["dock"],"aiAnalysis":{"sentiment":"neutral","keywords":["dock","video"]}},"responseText":"Ticket raised."}`
	ts := newTestServer(t, ticket, true)

	token, _, err := ts.tokens.GenerateToken("u-9", "grace")
	require.NoError(t, err)
	status, body := ts.do(t, nethttp.MethodPost, "/chat", `{"message":"dock dead","session_id":"s1"}`,
		map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "grace", body["ticket"].(map[string]any)["username"])

	status, body = ts.do(t, nethttp.MethodGet, "/tickets?session_id=s1", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	record := data[0].(map[string]any)
	assert.Equal(t, "s1", record["session_id"])
	key := record["external_key"].(string)
	assert.True(t, strings.HasPrefix(key, "TCK-"))
	assert.Equal(t, "u-9", record["ticket"].(map[string]any)["userid"])

	status, body = ts.do(t, nethttp.MethodGet, "/tickets/"+key, "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, key, body["data"].(map[string]any)["external_key"])
}

func TestTickets_Errors(t *testing.T) {
	disabled := newTestServer(t, "", false)
	status, body := disabled.do(t, nethttp.MethodGet, "/tickets?session_id=s1", "", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", body["error"].(map[string]any)["code"])

	enabled := newTestServer(t, "", true)
	status, _ = enabled.do(t, nethttp.MethodGet, "/tickets", "", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	status, _ = enabled.do(t, nethttp.MethodGet, "/tickets?session_id=..", "", nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestAuth_InvalidTokenRejected(t *testing.T) {
	ts := newTestServer(t, `{"responseText":"ok"}`, false)

	status, body := ts.do(t, nethttp.MethodPost, "/chat", `{"message":"hi","session_id":"s1"}`,
		map[string]string{"Authorization": "Bearer forged"})

	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])
	assert.Zero(t, ts.oracle.calls)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, `{"responseText":"ok"}`, false)

	status, body := ts.do(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = ts.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "ok", deps["session_store"])
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	_, _ = ts.do(t, nethttp.MethodPost, "/chat", `{"message":"hi","session_id":"s1"}`, nil)
	_, _ = ts.do(t, nethttp.MethodGet, "/nope", "", nil)

	status, body = ts.do(t, nethttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), body["turns"].(map[string]any)["ok"])
	assert.Equal(t, float64(1), body["requests"].(map[string]any)["/chat|POST|200"])
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := newTestServer(t, "", false)

	status, body := ts.do(t, nethttp.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestPanicIsRecovered(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusInternalServerError, resp.StatusCode)
}
