package tool_sleeperrosters

import (
	"context"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/sleeper"
)

// Tool name constant
const Name = "sleeper_league_rosters"

const sleeperRostersPrompt = `Summarize every roster in a Sleeper league.

Returns one entry per manager with display name, team name, starter, player and
taxi squad counts, and the current win/loss record. Requires a league_id, which
sleeper_user_leagues can provide.`

// SleeperRostersInput represents the parameters for sleeper_league_rosters
type SleeperRostersInput struct {
	LeagueID string `json:"league_id" required:"true" description:"Sleeper league id"`
}

// SleeperRostersOutput represents the response from sleeper_league_rosters
type SleeperRostersOutput struct {
	LeagueID string                  `json:"league_id"`
	Rosters  []sleeper.RosterSummary `json:"rosters"`
}

// Tool returns the sleeper_league_rosters tool bound to client.
func Tool(client *sleeper.Client) (agent.Tool, error) {
	return agent.NewGenericTool(Name, sleeperRostersPrompt, func(ctx context.Context, input SleeperRostersInput) (SleeperRostersOutput, error) {
		rosters, err := client.RosterSummaries(ctx, input.LeagueID)
		if err != nil {
			return SleeperRostersOutput{}, err
		}
		toolsutil.GetLogger().Info("fetched sleeper rosters", "league_id", input.LeagueID, "rosters", len(rosters))
		return SleeperRostersOutput{LeagueID: input.LeagueID, Rosters: rosters}, nil
	})
}
