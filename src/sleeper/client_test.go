package sleeper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, routes map[string]string) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, Season: 2025})
}

func TestUserNotFound(t *testing.T) {
	client := newTestClient(t, map[string]string{"/user/ghost": "null"})

	_, err := client.User(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.User(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestUserLeagueSummaries(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/user/loxfan": `{"user_id":"u1","username":"loxfan","display_name":"LoxFan"}`,
		"/user/u1/leagues/nfl/2025": `[{
			"league_id":"L1","draft_id":"D1","name":"IFL","season":"2025","total_rosters":12,
			"roster_positions":["QB","RB","RB","WR","WR","TE","FLEX","SUPER_FLEX","BN"],
			"scoring_settings":{"rec":1,"bonus_rec_te":0.5,"pass_td":4,"sack":1,"xpm":1,"unknown_stat":3}
		}]`,
	})

	leagues, err := client.UserLeagueSummaries(context.Background(), "loxfan", 0)
	require.NoError(t, err)
	require.Len(t, leagues, 1)

	l := leagues[0]
	assert.Equal(t, "IFL", l.Name)
	assert.Equal(t, 2, l.RosterPositions["RB"])
	assert.Equal(t, 1, l.RosterPositions["SUPER_FLEX"])
	assert.True(t, l.PPR)
	assert.True(t, l.TightEndPremium)
	assert.True(t, l.Superflex)
	assert.Equal(t, map[string]float64{"rec": 1, "bonus_rec_te": 0.5, "pass_td": 4}, l.OffenseScoring)
	assert.Equal(t, map[string]float64{"sack": 1}, l.DefenseScoring)
	assert.Equal(t, map[string]float64{"xpm": 1}, l.KickerScoring)
}

func TestUserLeagueSummariesNoLeagues(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/user/loxfan":              `{"user_id":"u1"}`,
		"/user/u1/leagues/nfl/2024": `[]`,
	})

	_, err := client.UserLeagueSummaries(context.Background(), "loxfan", 2024)
	assert.ErrorIs(t, err, ErrNoLeagues)
}

func TestRosterSummaries(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/league/L1/users": `[
			{"user_id":"u1","display_name":"Ann","metadata":{"team_name":"Dezpacito"}},
			{"user_id":"u2","display_name":"Bo","metadata":{}},
			{"user_id":"u3","display_name":"NoTeam"}
		]`,
		"/league/L1/rosters": `[
			{"roster_id":1,"owner_id":"u1","starters":["a","b"],"players":["a","b","c"],"taxi":["d"],"settings":{"wins":7,"losses":3}},
			{"roster_id":2,"owner_id":"u2","starters":["e"],"players":["e"],"settings":{"wins":2,"losses":8}}
		]`,
	})

	rosters, err := client.RosterSummaries(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, rosters, 2)
	assert.Equal(t, RosterSummary{
		UserID: "u1", DisplayName: "Ann", TeamName: "Dezpacito",
		StartersCount: 2, PlayersCount: 3, TaxiCount: 1, Wins: 7, Losses: 3,
	}, rosters[0])
	assert.Equal(t, 0, rosters[1].TaxiCount)
}

func TestDraftPickSummaries(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/league/L1/users": `[{"user_id":"u1","display_name":"Ann","metadata":{"team_name":"Dezpacito"}}]`,
		"/league/L1/drafts": `[
			{"draft_id":"R1","season":"2025","type":"snake"},
			{"draft_id":"A1","season":"2025","type":"auction"}
		]`,
		"/draft/R1/picks": `[{"player_id":"p1","picked_by":"u1","round":1,"pick_no":3,"metadata":{"first_name":"Ashton","last_name":"Jeanty","position":"RB"}}]`,
		"/draft/A1/picks": `[{"player_id":"p2","picked_by":"u9","round":1,"pick_no":1,"metadata":{"first_name":"Bijan","last_name":"Robinson","amount":"61"}}]`,
	})

	picks, err := client.DraftPickSummaries(context.Background(), "L1")
	require.NoError(t, err)
	require.Len(t, picks, 2)

	assert.Equal(t, DraftKindRookie, picks[0].DraftKind)
	assert.Equal(t, "Ashton Jeanty", picks[0].PlayerName)
	assert.Equal(t, "Dezpacito", picks[0].TeamName)
	assert.Nil(t, picks[0].Price)

	assert.Equal(t, DraftKindAuction, picks[1].DraftKind)
	require.NotNil(t, picks[1].Price)
	assert.Equal(t, 61.0, *picks[1].Price)
	assert.Empty(t, picks[1].TeamName)
}

func TestTrendingPlayers(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/nfl/trending/add", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"player_id":"4046","count":812}]`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	players, err := client.TrendingPlayers(context.Background(), TrendingAdd, 24, 10)
	require.NoError(t, err)
	assert.Equal(t, []TrendingPlayer{{PlayerID: "4046", Count: 812}}, players)
	assert.Equal(t, "limit=10&lookback_hours=24", gotQuery)

	_, err = client.TrendingPlayers(context.Background(), "hold", 0, 0)
	assert.Error(t, err)
}

func TestState(t *testing.T) {
	client := newTestClient(t, map[string]string{
		"/state/nfl": `{"week":7,"season":"2025","season_type":"regular","display_week":7}`,
	})
	st, err := client.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, st.Week)
	assert.Equal(t, "regular", st.SeasonType)
}
