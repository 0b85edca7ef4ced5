package tool_sleeperdrafts

import (
	"context"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/sleeper"
)

// Tool name constant
const Name = "sleeper_draft_picks"

const sleeperDraftsPrompt = `List every pick from every draft a Sleeper league has held.

Snake drafts are reported as rookie drafts; auctions include the winning price.
Useful for draft history, rookie cost, and what managers paid for players.`

// SleeperDraftsInput represents the parameters for sleeper_draft_picks
type SleeperDraftsInput struct {
	LeagueID string `json:"league_id" required:"true" description:"Sleeper league id"`
	Limit    int    `json:"limit,omitempty" minimum:"1" maximum:"500" description:"Maximum picks to return (default 200)"`
}

// SleeperDraftsOutput represents the response from sleeper_draft_picks
type SleeperDraftsOutput struct {
	LeagueID  string                `json:"league_id"`
	Total     int                   `json:"total"`
	Truncated bool                  `json:"truncated,omitempty"`
	Picks     []sleeper.PickSummary `json:"picks"`
}

// Tool returns the sleeper_draft_picks tool bound to client.
func Tool(client *sleeper.Client) (agent.Tool, error) {
	return agent.NewGenericTool(Name, sleeperDraftsPrompt, func(ctx context.Context, input SleeperDraftsInput) (SleeperDraftsOutput, error) {
		picks, err := client.DraftPickSummaries(ctx, input.LeagueID)
		if err != nil {
			return SleeperDraftsOutput{}, err
		}
		out := SleeperDraftsOutput{LeagueID: input.LeagueID, Total: len(picks), Picks: picks}
		if limit := toolsutil.ClampInt(input.Limit, 200, 1, 500); len(picks) > limit {
			out.Picks = picks[:limit]
			out.Truncated = true
		}
		toolsutil.GetLogger().Info("fetched sleeper draft picks", "league_id", input.LeagueID, "picks", len(picks))
		return out, nil
	})
}
