package tool_subredditsearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/loxresearch/genie/src/agent"
	"github.com/loxresearch/genie/src/genieagent/toolsutil"
	"github.com/loxresearch/genie/src/reddit"
)

// Tool name constant
const Name = "subreddit_search"

const subredditSearchPrompt = `Search a fantasy football subreddit for recent discussion.

WHEN TO USE THIS TOOL:
- Community sentiment about a player, rookie class, trade or draft strategy
- What managers have been saying lately about injuries or news

HOW TO USE:
- query: a few keywords, e.g. "Caleb Williams" or "rookie running backs"
- subreddit: one of %s

Returns posts with title, author, body text, upvotes and comment counts.`

// SubredditSearchInput represents the parameters for subreddit_search
type SubredditSearchInput struct {
	Query     string `json:"query" required:"true" description:"Keywords to search for"`
	Subreddit string `json:"subreddit" required:"true" description:"Subreddit to search, e.g. DynastyFF or FantasyFootball"`
	Limit     int    `json:"limit,omitempty" minimum:"1" maximum:"25" description:"Maximum posts to return (default 10)"`
}

// SubredditSearchOutput represents the response from subreddit_search
type SubredditSearchOutput struct {
	Subreddit string        `json:"subreddit"`
	Query     string        `json:"query"`
	Posts     []reddit.Post `json:"posts"`
}

const maxSelftext = 1500

// Tool returns the subreddit_search tool bound to client.
func Tool(client *reddit.Client) (agent.Tool, error) {
	desc := fmt.Sprintf(subredditSearchPrompt, strings.Join(client.Subreddits(), ", "))
	return agent.NewGenericTool(Name, desc, func(ctx context.Context, input SubredditSearchInput) (SubredditSearchOutput, error) {
		limit := toolsutil.ClampInt(input.Limit, 10, 1, 25)
		posts, err := client.Search(ctx, input.Subreddit, input.Query, limit)
		if err != nil {
			return SubredditSearchOutput{}, err
		}
		for i := range posts {
			posts[i].Selftext = toolsutil.Truncate(posts[i].Selftext, maxSelftext)
		}
		toolsutil.GetLogger().Info("searched subreddit", "subreddit", input.Subreddit, "query", input.Query, "posts", len(posts))
		return SubredditSearchOutput{
			Subreddit: input.Subreddit,
			Query:     input.Query,
			Posts:     posts,
		}, nil
	})
}
