package genie

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/graph"
	"github.com/loxresearch/genie/src/llm"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/state"
)

// queueInvoker answers classifier calls from a queue and falls back to a
// direct answer once the queue is empty.
type queueInvoker struct {
	mu      sync.Mutex
	answers []string
}

func (q *queueInvoker) Invoke(ctx context.Context, req llm.Request, out any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch req.Node {
	case "classifier":
		if len(q.answers) == 0 {
			return json.Unmarshal([]byte(`{"action":"direct_answer","response":"Start Bijan."}`), out)
		}
		next := q.answers[0]
		q.answers = q.answers[1:]
		return json.Unmarshal([]byte(next), out)
	case "planner":
		return json.Unmarshal([]byte(`{"subtasks":[]}`), out)
	}
	return errors.New("unexpected node")
}

type noTools struct{}

func (noTools) List() []agent.Spec { return nil }
func (noTools) Invoke(ctx context.Context, name string, params map[string]any) (json.RawMessage, error) {
	return nil, &agent.ToolError{Tool: name, Err: agent.ErrToolNotFound}
}

type brokenStore struct {
	*session.MemoryStore
}

func (brokenStore) Set(ctx context.Context, id string, s *state.ConversationState, ttl time.Duration) error {
	return errors.New("redis: connection pool timeout")
}

type countingObserver struct {
	mu    sync.Mutex
	turns []graph.Status
	lost  int
}

func (o *countingObserver) TurnFinished(status graph.Status, persisted bool, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, status)
	if !persisted {
		o.lost++
	}
}

func newService(t *testing.T, inv llm.Invoker, store session.Store, opts ...Option) *Service {
	t.Helper()
	g, err := graph.New(inv, noTools{}, graph.Config{MaxClarifications: 3})
	require.NoError(t, err)
	return NewService(g, session.NewAdapter(store, time.Hour, nil), opts...)
}

func TestRunTurnCreatesAndContinuesThread(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{}
	svc := newService(t, &queueInvoker{}, session.NewMemoryStore(), WithObserver(obs))

	res, err := svc.RunTurn(ctx, TurnRequest{Message: "Should I start Bijan?"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ThreadID)
	assert.Equal(t, "Start Bijan.", res.Response)
	assert.Equal(t, graph.StatusCompleted, res.Status)
	assert.True(t, res.Persisted)

	res2, err := svc.RunTurn(ctx, TurnRequest{ThreadID: res.ThreadID, Message: "And next week?"})
	require.NoError(t, err)
	assert.Equal(t, res.ThreadID, res2.ThreadID)

	stored, err := svc.Sessions().Get(ctx, res.ThreadID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 4, stored.MessageCounts.Total)
	assert.Equal(t, int64(3600), *stored.TTLSeconds)
	assert.Len(t, obs.turns, 2)
}

func TestRunTurnWithUnknownThreadIDStartsThatThread(t *testing.T) {
	svc := newService(t, &queueInvoker{}, session.NewMemoryStore())
	res, err := svc.RunTurn(context.Background(), TurnRequest{ThreadID: "my-thread", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "my-thread", res.ThreadID)
}

func TestRunTurnValidation(t *testing.T) {
	svc := newService(t, &queueInvoker{}, session.NewMemoryStore())
	tests := []struct {
		name  string
		req   TurnRequest
		field string
	}{
		{"missing message", TurnRequest{}, "message"},
		{"blank message", TurnRequest{Message: "   "}, "message"},
		{"bad thread id", TurnRequest{ThreadID: "../etc", Message: "hi"}, "thread_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunTurn(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	n, err := svc.Sessions().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResumeTurnAfterClarification(t *testing.T) {
	ctx := context.Background()
	inv := &queueInvoker{answers: []string{
		`{"action":"clarification_needed","response":"Do you want roster advice, trade strategy, or player research?"}`,
		`{"action":"research_required","response":"Looking at your roster."}`,
	}}
	svc := newService(t, inv, session.NewMemoryStore())

	res, err := svc.RunTurn(ctx, TurnRequest{Message: "Help me with my team"})
	require.NoError(t, err)
	require.Equal(t, graph.StatusAwaitingClarification, res.Status)

	stored, err := svc.Sessions().Get(ctx, res.ThreadID)
	require.NoError(t, err)
	assert.True(t, stored.Suspended())

	res, err = svc.ResumeTurn(ctx, ResumeRequest{ThreadID: res.ThreadID, Reply: "roster advice"})
	require.NoError(t, err)
	assert.Equal(t, graph.StatusCompleted, res.Status)
	assert.Equal(t, []graph.Node{graph.NodeClassifier, graph.NodePlanner, graph.NodeExecutor}, res.Path)

	stored, err = svc.Sessions().Get(ctx, res.ThreadID)
	require.NoError(t, err)
	assert.False(t, stored.Suspended())
	assert.Equal(t, "roster advice", stored.Messages[2].Content)
}

func TestResumeTurnRequiresThread(t *testing.T) {
	svc := newService(t, &queueInvoker{}, session.NewMemoryStore())
	_, err := svc.ResumeTurn(context.Background(), ResumeRequest{Reply: "roster advice"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "thread_id", verr.Field)
}

func TestStoreFailureStillReturnsAnswer(t *testing.T) {
	obs := &countingObserver{}
	svc := newService(t, &queueInvoker{}, brokenStore{session.NewMemoryStore()}, WithObserver(obs))

	res, err := svc.RunTurn(context.Background(), TurnRequest{Message: "Who are you?"})
	var serr *session.StoreError
	require.ErrorAs(t, err, &serr)
	require.NotNil(t, res)
	assert.Equal(t, "Start Bijan.", res.Response)
	assert.False(t, res.Persisted)
	assert.Equal(t, 1, obs.lost)
}

func TestConcurrentTurnsOnSameThreadDoNotLoseMessages(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &queueInvoker{}, session.NewMemoryStore())

	const n = 8
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RunTurn(ctx, TurnRequest{ThreadID: "shared", Message: "ping"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.Sessions().Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 2*n, stored.MessageCounts.Total)
}
