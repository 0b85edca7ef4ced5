package players

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	players []Player
	err     error
}

func (f *fakeSource) FullNames(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	names := make([]string, 0, len(f.players))
	for _, p := range f.players {
		names = append(names, p.FullName)
	}
	return names, nil
}

func (f *fakeSource) ByFullName(ctx context.Context, fullName string) (*Player, error) {
	for _, p := range f.players {
		if p.FullName == fullName {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

var roster = []Player{
	{PlayerID: "9509", FullName: "Bijan Robinson", Position: "RB", Team: "ATL"},
	{PlayerID: "11560", FullName: "Caleb Williams", Position: "QB", Team: "CHI"},
	{PlayerID: "12527", FullName: "Ashton Jeanty", Position: "RB", Team: "LV"},
	{PlayerID: "4046", FullName: "Patrick Mahomes", Position: "QB", Team: "KC"},
}

func TestScore(t *testing.T) {
	tests := []struct {
		a, b string
		min  int
		max  int
	}{
		{"Caleb Williams", "Caleb Williams", 100, 100},
		{"caleb williams", "Caleb Williams", 100, 100},
		{"Williams Caleb", "Caleb Williams", 100, 100},
		{"Bijan Robinsn", "Bijan Robinson", 85, 99},
		{"Ja'Marr Chase", "JaMarr Chase", 100, 100},
		{"Tom Brady", "Ashton Jeanty", 0, 40},
		{"", "Ashton Jeanty", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestSearch(t *testing.T) {
	s := NewSearcher(&fakeSource{players: roster}, 0, nil)

	m, err := s.Search(context.Background(), "ashton jeanty")
	require.NoError(t, err)
	assert.Equal(t, "Ashton Jeanty", m.Match)
	assert.Equal(t, 100, m.Score)
	assert.Equal(t, "12527", m.Player.PlayerID)

	m, err = s.Search(context.Background(), "Mahomes Patrick")
	require.NoError(t, err)
	assert.Equal(t, "4046", m.Player.PlayerID)
}

func TestSearchNoMatch(t *testing.T) {
	s := NewSearcher(&fakeSource{players: roster}, 0, nil)
	_, err := s.Search(context.Background(), "Zzyzx Qwerty")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = s.Search(context.Background(), " ")
	assert.Error(t, err)

	empty := NewSearcher(&fakeSource{}, 0, nil)
	_, err = empty.Search(context.Background(), "Bijan")
	assert.ErrorIs(t, err, ErrNoPlayers)

	broken := NewSearcher(&fakeSource{err: errors.New("connection reset")}, 0, nil)
	_, err = broken.Search(context.Background(), "Bijan")
	assert.ErrorContains(t, err, "connection reset")
}

func TestMongoSource(t *testing.T) {
	uri := os.Getenv("GENIE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GENIE_TEST_MONGO_URI not set")
	}
	src, err := OpenMongo(context.Background(), MongoOptions{URI: uri, Database: "genie_test"})
	require.NoError(t, err)
	defer src.Close(context.Background())

	_, err = src.FullNames(context.Background())
	require.NoError(t, err)
}
