package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genie"
	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/state"
)

type stubInvoker struct {
	classification string
}

func (s stubInvoker) Invoke(ctx context.Context, req llm.Request, out any) error {
	if req.Node == "classifier" {
		return json.Unmarshal([]byte(s.classification), out)
	}
	return json.Unmarshal([]byte(`{"subtasks":[]}`), out)
}

type noTools struct{}

func (noTools) List() []agent.Spec { return nil }
func (noTools) Invoke(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	return nil, &agent.ToolError{Tool: name, Err: agent.ErrToolNotFound}
}

type failingSetStore struct {
	*session.MemoryStore
}

func (failingSetStore) Set(ctx context.Context, id string, s *state.ConversationState, ttl time.Duration) error {
	return errors.New("disk full")
}

const directAnswer = `{"action":"direct_answer","response":"I'm Lox Genie, your fantasy football assistant."}`

func newTestServer(t *testing.T, classification string, store session.Store) *Server {
	t.Helper()
	g, err := graph.New(stubInvoker{classification: classification}, noTools{}, graph.Config{})
	require.NoError(t, err)
	svc := genie.NewService(g, session.NewAdapter(store, time.Hour, nil))
	return New(svc, Options{Metrics: promhttp.Handler()})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChatAndThreadLifecycle(t *testing.T) {
	s := newTestServer(t, directAnswer, session.NewMemoryStore())

	rec := do(t, s, http.MethodPost, "/v1/chat", `{"message":"Who are you?"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	threadID := body["thread_id"].(string)
	assert.NotEmpty(t, threadID)
	assert.Equal(t, "I'm Lox Genie, your fantasy football assistant.", body["response"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, true, body["persisted"])
	assert.NotContains(t, body, "error")

	rec = do(t, s, http.MethodGet, "/v1/threads/"+threadID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode(t, rec)
	assert.Equal(t, threadID, stored["thread_id"])
	assert.Len(t, stored["messages"], 2)

	rec = do(t, s, http.MethodGet, "/v1/threads", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Equal(t, []any{threadID}, list["thread_ids"])
	assert.Equal(t, float64(1), list["total"])

	rec = do(t, s, http.MethodGet, "/v1/threads/recent?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["threads"], 1)

	rec = do(t, s, http.MethodGet, "/v1/threads/"+threadID+"/ttl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ttl := decode(t, rec)["ttl_seconds"].(float64)
	assert.InDelta(t, 3600, ttl, 5)

	rec = do(t, s, http.MethodPut, "/v1/threads/"+threadID+"/ttl", `{"ttl_seconds":7200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7200), decode(t, rec)["ttl_seconds"])

	rec = do(t, s, http.MethodPost, "/v1/chat", `{"thread_id":"`+threadID+`","message":"And who built you?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodGet, "/v1/threads/"+threadID+"/ttl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 7200, decode(t, rec)["ttl_seconds"].(float64), 5)

	rec = do(t, s, http.MethodDelete, "/v1/threads/"+threadID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/threads/"+threadID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, "/v1/threads/"+threadID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodGet, "/v1/threads/"+threadID+"/ttl", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatClarificationAndResume(t *testing.T) {
	s := newTestServer(t, `{"action":"clarification_needed","response":"Which league are you asking about?"}`, session.NewMemoryStore())

	rec := do(t, s, http.MethodPost, "/v1/chat", `{"thread_id":"league-help","message":"Help me with my team"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "awaiting_clarification", body["status"])
	assert.Equal(t, "Which league are you asking about?", body["response"])

	rec = do(t, s, http.MethodPost, "/v1/chat/resume", `{"thread_id":"league-help","reply":"my dynasty league"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "league-help", decode(t, rec)["thread_id"])
}

func TestChatValidation(t *testing.T) {
	s := newTestServer(t, directAnswer, session.NewMemoryStore())

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"missing message", "/v1/chat", `{}`, "message"},
		{"bad thread id", "/v1/chat", `{"thread_id":"../x","message":"hi"}`, "thread_id"},
		{"resume without thread", "/v1/chat/resume", `{"reply":"yes"}`, "thread_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.field, decode(t, rec)["field"])
		})
	}

	rec := do(t, s, http.MethodPost, "/v1/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStoreFailureStillAnswers(t *testing.T) {
	s := newTestServer(t, directAnswer, failingSetStore{session.NewMemoryStore()})

	rec := do(t, s, http.MethodPost, "/v1/chat", `{"message":"Who are you?"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "I'm Lox Genie, your fantasy football assistant.", body["response"])
	assert.Equal(t, false, body["persisted"])
	assert.Equal(t, "conversation state could not be saved", body["error"])
}

func TestThreadQueryValidation(t *testing.T) {
	s := newTestServer(t, directAnswer, session.NewMemoryStore())

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/v1/threads/recent?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/v1/threads?pattern=[", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/v1/threads/x/ttl", `{"ttl_seconds":0}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPut, "/v1/threads/x/ttl", `{"ttl_seconds":60}`).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, directAnswer, session.NewMemoryStore())

	rec := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])

	rec = do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
