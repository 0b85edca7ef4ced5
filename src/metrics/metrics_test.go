package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/graph"
)

func TestProcessCountsEvents(t *testing.T) {
	m := New()
	require.NoError(t, m.Process(&graph.NodeFinishedEvent{Node: graph.NodeClassifier, Duration: time.Second, Fallback: true}))
	require.NoError(t, m.Process(&graph.ToolCallEvent{ToolName: "subreddit_search", Duration: time.Millisecond}))
	require.NoError(t, m.Process(&graph.ToolCallEvent{ToolName: "subreddit_search", Failed: true}))
	require.NoError(t, m.Process(&graph.ToolCallEvent{Failed: true}))
	require.NoError(t, m.Process(&graph.InterruptEvent{}))
	m.TurnFinished(graph.StatusCompleted, true, time.Second)
	m.TurnFinished(graph.StatusCompleted, false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("classifier")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("subreddit_search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("subreddit_search", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toolCalls.WithLabelValues("none", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.interrupts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("completed", "false")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.TurnFinished(graph.StatusAwaitingClarification, true, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `genie_turns_total{persisted="true",status="awaiting_clarification"} 1`)
}
