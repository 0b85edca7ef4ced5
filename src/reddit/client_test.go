package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{"data":{"children":[
	{"data":{"id":"a1","url":"https://reddit.com/a1","title":"Rookie RB tiers","author":"dynastyguy","selftext":"Jeanty > all","ups":420,"upvote_ratio":0.97,"num_comments":88,"is_video":false}},
	{"data":{"id":"a2","title":"Second post","ups":3}}
]}}`

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/DynastyFF/search.json", r.URL.Path)
		assert.Equal(t, "rookie rb", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("restrict_sr"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(searchBody))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	posts, err := client.Search(context.Background(), "dynastyff", "rookie rb", 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, Post{
		ID: "a1", URL: "https://reddit.com/a1", Title: "Rookie RB tiers", Author: "dynastyguy",
		Selftext: "Jeanty > all", Upvotes: 420, UpvoteRatio: 0.97, Comments: 88,
	}, posts[0])

	posts, err = client.Search(context.Background(), "r/DynastyFF", "rookie rb", 1)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestSearchRejectsUnknownSubreddit(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Search(context.Background(), "nba", "lebron", 5)
	assert.ErrorIs(t, err, ErrSubredditNotAllowed)

	_, err = client.Search(context.Background(), "FantasyFootball", "  ", 5)
	assert.Error(t, err)
}

func TestSearchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Search(context.Background(), "FantasyFootball", "waivers", 5)
	assert.ErrorContains(t, err, "status 429")
}

func TestSearchRateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"children":[]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RequestsPerMinute: 1})
	_, err := client.Search(context.Background(), "FantasyFootball", "first", 5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Search(ctx, "FantasyFootball", "second", 5)
	assert.Error(t, err)
}
