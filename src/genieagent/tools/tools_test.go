package tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/sleeper"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryListsConfiguredTools(t *testing.T) {
	tb, err := Registry(DefaultDeps(http.DefaultClient, quietLogger()))
	require.NoError(t, err)

	var names []string
	for _, spec := range tb.List() {
		names = append(names, spec.Name)
		assert.NotEmpty(t, spec.Description, spec.Name)
		assert.NotNil(t, spec.ParameterSchema, spec.Name)
	}
	assert.Equal(t, []string{
		SleeperDraftsName,
		SleeperRostersName,
		SleeperTrendingName,
		SleeperLeaguesName,
		SubredditSearchName,
		WeatherSearchName,
		WebFetchName,
	}, names)
	assert.False(t, tb.HasTool(PlayerSearchName))
}

func TestRegistryEmpty(t *testing.T) {
	tb, err := Registry(Deps{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Empty(t, tb.List())

	_, err = tb.Invoke(context.Background(), SubredditSearchName, nil)
	assert.ErrorIs(t, err, agent.ErrToolNotFound)
}

func TestSleeperToolsThroughRegistry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/league/L1/users":
			w.Write([]byte(`[{"user_id":"u1","display_name":"Ann","metadata":{"team_name":"Dezpacito"}}]`))
		case "/league/L1/rosters":
			w.Write([]byte(`[{"owner_id":"u1","starters":["a"],"players":["a","b"],"settings":{"wins":4,"losses":2}}]`))
		case "/players/nfl/trending/drop":
			w.Write([]byte(`[{"player_id":"1","count":99}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tb, err := Registry(Deps{
		Sleeper: sleeper.NewClient(sleeper.Config{BaseURL: server.URL}),
		Logger:  quietLogger(),
	})
	require.NoError(t, err)

	out, err := tb.Invoke(context.Background(), SleeperRostersName, map[string]any{"league_id": "L1"})
	require.NoError(t, err)
	var rosters struct {
		Rosters []sleeper.RosterSummary `json:"rosters"`
	}
	require.NoError(t, json.Unmarshal(out, &rosters))
	require.Len(t, rosters.Rosters, 1)
	assert.Equal(t, 4, rosters.Rosters[0].Wins)

	out, err = tb.Invoke(context.Background(), SleeperTrendingName, map[string]any{"type": "drop"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"drop","players":[{"player_id":"1","count":99}]}`, string(out))

	_, err = tb.Invoke(context.Background(), SleeperTrendingName, map[string]any{"type": "hold"})
	assert.ErrorIs(t, err, agent.ErrInvalidParameters)

	_, err = tb.Invoke(context.Background(), SleeperDraftsName, map[string]any{"league_id": "missing"})
	var toolErr *agent.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, SleeperDraftsName, toolErr.Tool)
}
