package tool_playersearch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/aisdk"
	"github.com/loxresearch/genie/src/players"
)

type staticSource []players.Player

func (s staticSource) FullNames(ctx context.Context) ([]string, error) {
	var names []string
	for _, p := range s {
		names = append(names, p.FullName)
	}
	return names, nil
}

func (s staticSource) ByFullName(ctx context.Context, name string) (*players.Player, error) {
	for _, p := range s {
		if p.FullName == name {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func TestPlayerSearch(t *testing.T) {
	src := staticSource{
		{PlayerID: "9509", FullName: "Bijan Robinson", Position: "RB", Team: "ATL"},
		{PlayerID: "8150", FullName: "Kyren Williams", Position: "RB", Team: "LAR"},
	}
	tool, err := Tool(players.NewSearcher(src, 0, nil))
	require.NoError(t, err)

	resp, err := tool.Execute(context.Background(), &aisdk.ToolCall{
		Function: aisdk.FunctionCall{Arguments: []byte(`{"name":"bijan robinsen"}`)},
	})
	require.NoError(t, err)
	require.False(t, resp.IsError, string(resp.Content))

	var m players.Match
	require.NoError(t, json.Unmarshal(resp.Content, &m))
	assert.Equal(t, "Bijan Robinson", m.Match)
	assert.Equal(t, "ATL", m.Player.Team)
	assert.GreaterOrEqual(t, m.Score, players.DefaultThreshold)

	resp, err = tool.Execute(context.Background(), &aisdk.ToolCall{
		Function: aisdk.FunctionCall{Arguments: []byte(`{"name":"Xyz Qqq"}`)},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsError)
}
