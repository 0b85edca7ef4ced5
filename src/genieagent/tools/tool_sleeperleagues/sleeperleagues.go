package tool_sleeperleagues

import (
	"context"
	"strings"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/sleeper"
)

// Tool name constant
const Name = "sleeper_user_leagues"

const sleeperLeaguesPrompt = `Look up a Sleeper user's NFL leagues and their settings.

WHEN TO USE THIS TOOL:
- The user mentions their Sleeper username or user id
- Advice depends on league format (PPR, superflex, tight end premium, roster size)

Returns each league with counted roster positions, offense/defense/kicker scoring
and derived flags (ppr, superflex, tight_end_premium).`

// SleeperLeaguesInput represents the parameters for sleeper_user_leagues
type SleeperLeaguesInput struct {
	Username string `json:"username" required:"true" description:"Sleeper username or user id"`
	Season   int    `json:"season,omitempty" minimum:"2017" description:"Season year (defaults to the current season)"`
}

// SleeperLeaguesOutput represents the response from sleeper_user_leagues
type SleeperLeaguesOutput struct {
	Username string                  `json:"username"`
	Leagues  []sleeper.LeagueSummary `json:"leagues"`
}

// Tool returns the sleeper_user_leagues tool bound to client.
func Tool(client *sleeper.Client) (agent.Tool, error) {
	return agent.NewGenericTool(Name, sleeperLeaguesPrompt, func(ctx context.Context, input SleeperLeaguesInput) (SleeperLeaguesOutput, error) {
		username := strings.TrimSpace(input.Username)
		leagues, err := client.UserLeagueSummaries(ctx, username, input.Season)
		if err != nil {
			return SleeperLeaguesOutput{}, err
		}
		toolsutil.GetLogger().Info("fetched sleeper leagues", "username", username, "leagues", len(leagues))
		return SleeperLeaguesOutput{Username: username, Leagues: leagues}, nil
	})
}
