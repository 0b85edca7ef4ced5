// Package players resolves free-text player names to player records using
// fuzzy matching over the full-name index of a player source.
package players

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the minimum score (0-100) for a match to be returned.
const DefaultThreshold = 60

var (
	// ErrNoPlayers is returned when the source has no names to match against.
	ErrNoPlayers = errors.New("players: no player names available")

	// ErrNoMatch is returned when no name scores at or above the threshold.
	ErrNoMatch = errors.New("players: no close match")
)

// Player is a player document as stored by the roster pipeline.
type Player struct {
	ID               string   `json:"id,omitempty" bson:"-"`
	PlayerID         string   `json:"player_id" bson:"player_id"`
	FullName         string   `json:"full_name" bson:"full_name"`
	FirstName        string   `json:"first_name,omitempty" bson:"first_name"`
	LastName         string   `json:"last_name,omitempty" bson:"last_name"`
	Position         string   `json:"position,omitempty" bson:"position"`
	FantasyPositions []string `json:"fantasy_positions,omitempty" bson:"fantasy_positions"`
	Team             string   `json:"team,omitempty" bson:"team"`
	Age              int      `json:"age,omitempty" bson:"age"`
	YearsExp         int      `json:"years_exp,omitempty" bson:"years_exp"`
	College          string   `json:"college,omitempty" bson:"college"`
	Status           string   `json:"status,omitempty" bson:"status"`
	InjuryStatus     string   `json:"injury_status,omitempty" bson:"injury_status"`
	DepthChartOrder  int      `json:"depth_chart_order,omitempty" bson:"depth_chart_order"`
	SearchRank       int      `json:"search_rank,omitempty" bson:"search_rank"`
}

// Source provides player names and documents.
type Source interface {
	FullNames(ctx context.Context) ([]string, error)
	ByFullName(ctx context.Context, fullName string) (*Player, error)
}

// Match is the best candidate for a query.
type Match struct {
	Match  string  `json:"match"`
	Score  int     `json:"score"`
	Player *Player `json:"player"`
}

// Searcher matches names against a Source.
type Searcher struct {
	source    Source
	threshold int
	logger    *slog.Logger
}

// NewSearcher creates a Searcher. A threshold of zero uses DefaultThreshold.
func NewSearcher(source Source, threshold int, logger *slog.Logger) *Searcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		source:    source,
		threshold: threshold,
		logger:    logger.With("component", "player_search"),
	}
}

// Search returns the closest player to name.
func (s *Searcher) Search(ctx context.Context, name string) (*Match, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("players: name is required")
	}

	names, err := s.source.FullNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("players: load names: %w", err)
	}
	if len(names) == 0 {
		return nil, ErrNoPlayers
	}

	best, score := BestMatch(name, names)
	s.logger.Debug("player match", "query", name, "match", best, "score", score)
	if score < s.threshold {
		return nil, fmt.Errorf("%w for %q", ErrNoMatch, name)
	}

	p, err := s.source.ByFullName(ctx, best)
	if err != nil {
		return nil, fmt.Errorf("players: load %q: %w", best, err)
	}
	return &Match{Match: best, Score: score, Player: p}, nil
}

// BestMatch returns the candidate with the highest Score. Ties keep the
// earliest candidate.
func BestMatch(query string, candidates []string) (string, int) {
	best, bestScore := "", -1
	for _, c := range candidates {
		if sc := Score(query, c); sc > bestScore {
			best, bestScore = c, sc
		}
	}
	return best, bestScore
}

// Score rates the similarity of two names from 0 to 100. Case, punctuation
// and token order are ignored.
func Score(a, b string) int {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	direct := ratio(na, nb)
	sorted := ratio(sortTokens(na), sortTokens(nb))
	if sorted > direct {
		return sorted
	}
	return direct
}

func ratio(a, b string) int {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(float64(longest-dist) / float64(longest) * 100)
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
