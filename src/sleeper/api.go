package sleeper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Trending directions accepted by TrendingPlayers.
const (
	TrendingAdd  = "add"
	TrendingDrop = "drop"
)

// State returns the current NFL calendar state.
func (c *Client) State(ctx context.Context) (*NFLState, error) {
	var out NFLState
	if err := c.get(ctx, "/state/nfl", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User looks up an account by username or user id.
func (c *Client) User(ctx context.Context, usernameOrID string) (*User, error) {
	if usernameOrID == "" {
		return nil, fmt.Errorf("sleeper: username is required")
	}
	var out User
	if err := c.get(ctx, "/user/"+url.PathEscape(usernameOrID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserLeagues lists a user's NFL leagues for season. Zero means the client default.
func (c *Client) UserLeagues(ctx context.Context, userID string, season int) ([]League, error) {
	if season == 0 {
		season = c.season
	}
	var out []League
	path := fmt.Sprintf("/user/%s/leagues/nfl/%d", url.PathEscape(userID), season)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LeagueUsers lists the members of a league.
func (c *Client) LeagueUsers(ctx context.Context, leagueID string) ([]LeagueUser, error) {
	var out []LeagueUser
	if err := c.get(ctx, "/league/"+url.PathEscape(leagueID)+"/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LeagueRosters lists the rosters of a league.
func (c *Client) LeagueRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var out []Roster
	if err := c.get(ctx, "/league/"+url.PathEscape(leagueID)+"/rosters", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LeagueDrafts lists every draft a league has held.
func (c *Client) LeagueDrafts(ctx context.Context, leagueID string) ([]Draft, error) {
	var out []Draft
	if err := c.get(ctx, "/league/"+url.PathEscape(leagueID)+"/drafts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DraftPicks lists the picks made in a draft.
func (c *Client) DraftPicks(ctx context.Context, draftID string) ([]DraftPick, error) {
	var out []DraftPick
	if err := c.get(ctx, "/draft/"+url.PathEscape(draftID)+"/picks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TrendingPlayers lists the most added or dropped players.
func (c *Client) TrendingPlayers(ctx context.Context, kind string, lookbackHours, limit int) ([]TrendingPlayer, error) {
	if kind != TrendingAdd && kind != TrendingDrop {
		return nil, fmt.Errorf("sleeper: trending type must be %q or %q", TrendingAdd, TrendingDrop)
	}
	q := url.Values{}
	if lookbackHours > 0 {
		q.Set("lookback_hours", strconv.Itoa(lookbackHours))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []TrendingPlayer
	if err := c.get(ctx, "/players/nfl/trending/"+kind, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Matchups lists a league's matchups for week.
func (c *Client) Matchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	var out []Matchup
	path := fmt.Sprintf("/league/%s/matchups/%d", url.PathEscape(leagueID), week)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions lists a league's transactions for a round (week).
func (c *Client) Transactions(ctx context.Context, leagueID string, round int) ([]Transaction, error) {
	var out []Transaction
	path := fmt.Sprintf("/league/%s/transactions/%d", url.PathEscape(leagueID), round)
	if err := c.get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
