package sleeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Scoring categories used to split a league's scoring settings.
var (
	OffenseStats = []string{"pass_yd", "pass_td", "pass_int", "pass_2pt", "rush_yd", "rush_td", "rush_2pt", "rec", "rec_yd", "rec_td", "rec_2pt", "fum", "fum_lost", "bonus_rec_te", "st_td"}
	DefenseStats = []string{"sack", "int", "ff", "fum_rec", "fum_rec_td", "safe", "def_td", "def_st_td", "def_st_ff", "def_st_fum_rec", "blk_kick", "st_fum_rec", "st_ff", "pts_allow_0", "pts_allow_1_6", "pts_allow_7_13", "pts_allow_14_20", "pts_allow_21_27", "pts_allow_28_34", "pts_allow_35p"}
	KickerStats  = []string{"fgm_0_19", "fgm_20_29", "fgm_30_39", "fgm_40_49", "fgm_50_59", "fgm_60p", "fgmiss", "xpm", "xpmiss"}
)

// LeagueSummary is a league reduced to the settings that matter for advice.
type LeagueSummary struct {
	LeagueID         string             `json:"league_id"`
	DraftID          string             `json:"draft_id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Season           string             `json:"season"`
	SeasonType       string             `json:"season_type"`
	TotalRosters     int                `json:"total_rosters"`
	PreviousLeagueID string             `json:"previous_league_id,omitempty"`
	RosterPositions  map[string]int     `json:"roster_positions"`
	OffenseScoring   map[string]float64 `json:"offense_scoring"`
	DefenseScoring   map[string]float64 `json:"defense_scoring"`
	KickerScoring    map[string]float64 `json:"kicker_scoring"`
	PPR              bool               `json:"ppr"`
	TightEndPremium  bool               `json:"tight_end_premium"`
	Superflex        bool               `json:"superflex"`
}

// Summarize reduces l to a LeagueSummary.
func Summarize(l League) LeagueSummary {
	s := LeagueSummary{
		LeagueID:         l.LeagueID,
		DraftID:          l.DraftID,
		Name:             l.Name,
		Status:           l.Status,
		Season:           l.Season,
		SeasonType:       l.SeasonType,
		TotalRosters:     l.TotalRosters,
		PreviousLeagueID: l.PreviousLeagueID,
		RosterPositions:  make(map[string]int),
		OffenseScoring:   pick(l.ScoringSettings, OffenseStats),
		DefenseScoring:   pick(l.ScoringSettings, DefenseStats),
		KickerScoring:    pick(l.ScoringSettings, KickerStats),
	}
	for _, pos := range l.RosterPositions {
		s.RosterPositions[pos]++
	}
	s.PPR = s.OffenseScoring["rec"] == 1
	s.TightEndPremium = s.OffenseScoring["bonus_rec_te"] > 0
	qb, flex := s.RosterPositions["QB"], s.RosterPositions["SUPER_FLEX"]
	s.Superflex = qb >= 2 || (qb >= 1 && flex >= 1)
	return s
}

func pick(settings map[string]float64, keys []string) map[string]float64 {
	out := make(map[string]float64)
	for _, k := range keys {
		if v, ok := settings[k]; ok {
			out[k] = v
		}
	}
	return out
}

// UserLeagueSummaries resolves usernameOrID and summarizes their leagues for season.
func (c *Client) UserLeagueSummaries(ctx context.Context, usernameOrID string, season int) ([]LeagueSummary, error) {
	user, err := c.User(ctx, usernameOrID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", usernameOrID, err)
	}
	leagues, err := c.UserLeagues(ctx, user.UserID, season)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(leagues) == 0 {
		if season == 0 {
			season = c.season
		}
		return nil, fmt.Errorf("%w for user %s in season %d", ErrNoLeagues, usernameOrID, season)
	}
	out := make([]LeagueSummary, 0, len(leagues))
	for _, l := range leagues {
		out = append(out, Summarize(l))
	}
	return out, nil
}

// RosterSummary is one manager's roster record within a league.
type RosterSummary struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	TeamName      string `json:"team_name"`
	StartersCount int    `json:"starters_count"`
	PlayersCount  int    `json:"players_count"`
	TaxiCount     int    `json:"taxi_count"`
	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
}

// RosterSummaries joins league members with their rosters. Members without a
// roster are skipped.
func (c *Client) RosterSummaries(ctx context.Context, leagueID string) ([]RosterSummary, error) {
	var (
		users   []LeagueUser
		rosters []Roster
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = c.LeagueUsers(gctx, leagueID)
		return err
	})
	g.Go(func() error {
		var err error
		rosters, err = c.LeagueRosters(gctx, leagueID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byOwner := make(map[string]Roster, len(rosters))
	for _, r := range rosters {
		byOwner[r.OwnerID] = r
	}

	out := make([]RosterSummary, 0, len(users))
	for _, u := range users {
		r, ok := byOwner[u.UserID]
		if !ok {
			continue
		}
		out = append(out, RosterSummary{
			UserID:        u.UserID,
			DisplayName:   u.DisplayName,
			TeamName:      u.Metadata.TeamName,
			StartersCount: len(r.Starters),
			PlayersCount:  len(r.Players),
			TaxiCount:     len(r.Taxi),
			Wins:          r.Settings.Wins,
			Losses:        r.Settings.Losses,
		})
	}
	return out, nil
}

// Draft kinds reported on pick summaries.
const (
	DraftKindRookie  = "rookie"
	DraftKindAuction = "auction"
)

// PickSummary is a draft pick joined with the picking manager.
type PickSummary struct {
	Season      string   `json:"season"`
	DraftID     string   `json:"draft_id"`
	DraftKind   string   `json:"draft_kind"`
	PlayerID    string   `json:"player_id"`
	PlayerName  string   `json:"player_name"`
	Position    string   `json:"position,omitempty"`
	Round       int      `json:"round"`
	Pick        int      `json:"pick"`
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name,omitempty"`
	TeamName    string   `json:"team_name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// DraftPickSummaries lists every pick from every draft in a league. Snake
// drafts are treated as rookie drafts; everything else as auctions with a price.
func (c *Client) DraftPickSummaries(ctx context.Context, leagueID string) ([]PickSummary, error) {
	users, err := c.LeagueUsers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	drafts, err := c.LeagueDrafts(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	members := make(map[string]LeagueUser, len(users))
	for _, u := range users {
		members[u.UserID] = u
	}

	picksByDraft := make([][]DraftPick, len(drafts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, d := range drafts {
		g.Go(func() error {
			picks, err := c.DraftPicks(gctx, d.DraftID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return fmt.Errorf("draft %s: %w", d.DraftID, err)
			}
			picksByDraft[i] = picks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []PickSummary
	for i, d := range drafts {
		kind := DraftKindAuction
		if d.Type == "snake" {
			kind = DraftKindRookie
		}
		for _, p := range picksByDraft[i] {
			s := PickSummary{
				Season:     d.Season,
				DraftID:    d.DraftID,
				DraftKind:  kind,
				PlayerID:   p.PlayerID,
				PlayerName: strings.TrimSpace(p.Metadata["first_name"] + " " + p.Metadata["last_name"]),
				Position:   p.Metadata["position"],
				Round:      p.Round,
				Pick:       p.PickNo,
				UserID:     p.PickedBy,
			}
			if u, ok := members[p.PickedBy]; ok {
				s.DisplayName = u.DisplayName
				s.TeamName = u.Metadata.TeamName
			}
			if kind == DraftKindAuction {
				if amount, err := strconv.ParseFloat(p.Metadata["amount"], 64); err == nil {
					s.Price = &amount
				}
			}
			out = append(out, s)
		}
	}
	return out, nil
}
