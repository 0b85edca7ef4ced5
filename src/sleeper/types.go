package sleeper

// NFLState is the current league calendar.
type NFLState struct {
	Week            int    `json:"week"`
	Leg             int    `json:"leg"`
	Season          string `json:"season"`
	SeasonType      string `json:"season_type"`
	SeasonStartDate string `json:"season_start_date"`
	PreviousSeason  string `json:"previous_season"`
	LeagueSeason    string `json:"league_season"`
	DisplayWeek     int    `json:"display_week"`
}

// User is a Sleeper account.
type User struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

// League is a league as returned by the user leagues endpoint.
type League struct {
	LeagueID         string             `json:"league_id"`
	DraftID          string             `json:"draft_id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Season           string             `json:"season"`
	SeasonType       string             `json:"season_type"`
	TotalRosters     int                `json:"total_rosters"`
	RosterPositions  []string           `json:"roster_positions"`
	ScoringSettings  map[string]float64 `json:"scoring_settings"`
	PreviousLeagueID string             `json:"previous_league_id"`
	Metadata         map[string]any     `json:"metadata"`
}

// LeagueUser is a member of a league.
type LeagueUser struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	IsOwner     bool   `json:"is_owner"`
	Metadata    struct {
		TeamName string `json:"team_name"`
	} `json:"metadata"`
}

// RosterSettings carries a roster's record.
type RosterSettings struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Roster is one team's player list within a league.
type Roster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	LeagueID string         `json:"league_id"`
	Starters []string       `json:"starters"`
	Players  []string       `json:"players"`
	Taxi     []string       `json:"taxi"`
	Reserve  []string       `json:"reserve"`
	Settings RosterSettings `json:"settings"`
}

// Draft describes one draft held by a league.
type Draft struct {
	DraftID  string         `json:"draft_id"`
	LeagueID string         `json:"league_id"`
	Season   string         `json:"season"`
	Type     string         `json:"type"`
	Status   string         `json:"status"`
	Settings map[string]any `json:"settings"`
}

// DraftPick is one selection in a draft. Metadata values are strings on the wire.
type DraftPick struct {
	PlayerID  string            `json:"player_id"`
	PickedBy  string            `json:"picked_by"`
	RosterID  int               `json:"roster_id"`
	Round     int               `json:"round"`
	PickNo    int               `json:"pick_no"`
	DraftSlot int               `json:"draft_slot"`
	DraftID   string            `json:"draft_id"`
	Metadata  map[string]string `json:"metadata"`
}

// TrendingPlayer is a player id with its add or drop count.
type TrendingPlayer struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

// Matchup is one roster's result for a week.
type Matchup struct {
	RosterID  int      `json:"roster_id"`
	MatchupID int      `json:"matchup_id"`
	Points    float64  `json:"points"`
	Starters  []string `json:"starters"`
	Players   []string `json:"players"`
}

// Transaction is a trade, waiver or free-agent move.
type Transaction struct {
	TransactionID string         `json:"transaction_id"`
	Type          string         `json:"type"`
	Status        string         `json:"status"`
	Leg           int            `json:"leg"`
	Created       int64          `json:"created"`
	RosterIDs     []int          `json:"roster_ids"`
	Adds          map[string]int `json:"adds"`
	Drops         map[string]int `json:"drops"`
}
