package tool_sleepertrending

import (
	"context"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/sleeper"
)

// Tool name constant
const Name = "sleeper_trending_players"

const sleeperTrendingPrompt = `List the players most added or dropped across Sleeper leagues.

Use for waiver wire questions and to gauge who is rising or falling. Returns
Sleeper player ids with the number of adds or drops in the lookback window;
player_search can resolve names.`

// SleeperTrendingInput represents the parameters for sleeper_trending_players
type SleeperTrendingInput struct {
	Type          string `json:"type" required:"true" enum:"add,drop" description:"add or drop"`
	LookbackHours int    `json:"lookback_hours,omitempty" minimum:"1" maximum:"168" description:"Window in hours (default 24)"`
	Limit         int    `json:"limit,omitempty" minimum:"1" maximum:"50" description:"Maximum players (default 25)"`
}

// SleeperTrendingOutput represents the response from sleeper_trending_players
type SleeperTrendingOutput struct {
	Type    string                   `json:"type"`
	Players []sleeper.TrendingPlayer `json:"players"`
}

// Tool returns the sleeper_trending_players tool bound to client.
func Tool(client *sleeper.Client) (agent.Tool, error) {
	return agent.NewGenericTool(Name, sleeperTrendingPrompt, func(ctx context.Context, input SleeperTrendingInput) (SleeperTrendingOutput, error) {
		hours := toolsutil.ClampInt(input.LookbackHours, 24, 1, 168)
		limit := toolsutil.ClampInt(input.Limit, 25, 1, 50)
		players, err := client.TrendingPlayers(ctx, input.Type, hours, limit)
		if err != nil {
			return SleeperTrendingOutput{}, err
		}
		return SleeperTrendingOutput{Type: input.Type, Players: players}, nil
	})
}
