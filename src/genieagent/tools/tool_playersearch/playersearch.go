package tool_playersearch

import (
	"context"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/players"
)

// Tool name constant
const Name = "player_search"

const playerSearchPrompt = `Find an NFL player by name, tolerating typos and nicknames in order.

Returns the closest matching player's profile (team, position, age, experience,
injury status) together with the match score from 0 to 100.`

// PlayerSearchInput represents the parameters for player_search
type PlayerSearchInput struct {
	Name string `json:"name" required:"true" description:"Player name, e.g. Bijan Robinson"`
}

// Tool returns the player_search tool bound to searcher.
func Tool(searcher *players.Searcher) (agent.Tool, error) {
	return agent.NewGenericTool(Name, playerSearchPrompt, func(ctx context.Context, input PlayerSearchInput) (*players.Match, error) {
		m, err := searcher.Search(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		toolsutil.GetLogger().Info("matched player", "query", input.Name, "match", m.Match, "score", m.Score)
		return m, nil
	})
}
