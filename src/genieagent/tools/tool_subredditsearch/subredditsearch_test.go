package tool_subredditsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/reddit"
)

func call(t *testing.T, params map[string]any) *aisdk.ToolCall {
	t.Helper()
	args, err := json.Marshal(params)
	require.NoError(t, err)
	return &aisdk.ToolCall{Function: aisdk.FunctionCall{Name: Name, Arguments: args}}
}

func TestSubredditSearch(t *testing.T) {
	long := strings.Repeat("a", 2000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"children": []any{
			map[string]any{"data": map[string]any{"id": "x1", "title": "Caleb hype", "selftext": long, "ups": 10}},
		}}})
	}))
	defer server.Close()

	tool, err := Tool(reddit.NewClient(reddit.Config{BaseURL: server.URL}))
	require.NoError(t, err)
	assert.Contains(t, tool.GetDescription(), "DynastyFF")

	resp, err := tool.Execute(context.Background(), call(t, map[string]any{
		"query": "Caleb Williams", "subreddit": "DynastyFF", "limit": 5,
	}))
	require.NoError(t, err)
	require.False(t, resp.IsError, string(resp.Content))

	var out SubredditSearchOutput
	require.NoError(t, json.Unmarshal(resp.Content, &out))
	require.Len(t, out.Posts, 1)
	assert.Equal(t, "Caleb hype", out.Posts[0].Title)
	assert.Less(t, len(out.Posts[0].Selftext), 2000)
}

func TestSubredditSearchRejectsUnknownSubreddit(t *testing.T) {
	tool, err := Tool(reddit.NewClient(reddit.Config{BaseURL: "http://127.0.0.1:0"}))
	require.NoError(t, err)

	resp, err := tool.Execute(context.Background(), call(t, map[string]any{"query": "x", "subreddit": "nfl"}))
	require.NoError(t, err)
	assert.True(t, resp.IsError)
	assert.Contains(t, string(resp.Content), "not allowed")
}
