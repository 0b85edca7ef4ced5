package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/state"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newState(id string, updated time.Time) *state.ConversationState {
	s := state.New(id)
	s.AppendHuman("Analyze rookie RBs for my dynasty draft")
	s.AppendAgent("Let me research that.", state.ClassificationMetadata(state.ActionResearchRequired))
	s.SetRelevant(true)
	s.AppendPlan([]string{"Search Reddit for rookie RB rankings"})
	s.LastUpdated = updated
	return s
}

type backend struct {
	name  string
	open  func(t *testing.T, c *clock) Store
	clock bool
}

func backends() []backend {
	return []backend{
		{name: "memory", clock: true, open: func(t *testing.T, c *clock) Store {
			m := NewMemoryStore()
			m.now = c.now
			return m
		}},
		{name: "sqlite", clock: true, open: func(t *testing.T, c *clock) Store {
			s, err := OpenSQLite(":memory:")
			require.NoError(t, err)
			s.now = c.now
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{name: "redis", open: func(t *testing.T, c *clock) Store {
			addr := os.Getenv("GENIE_TEST_REDIS_ADDR")
			if addr == "" {
				t.Skip("GENIE_TEST_REDIS_ADDR not set")
			}
			rdb := redis.NewClient(&redis.Options{Addr: addr})
			t.Cleanup(func() { rdb.Close() })
			prefix := "genie-test-" + state.NewID()
			store := NewRedisStore(rdb, prefix)
			t.Cleanup(func() {
				ids, _ := store.List(context.Background(), "")
				for _, id := range ids {
					store.Delete(context.Background(), id)
				}
			})
			return store
		}},
	}
}

func TestStoreContract(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			c := &clock{t: time.Now().UTC()}
			store := b.open(t, c)

			got, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			s := newState("t-1", c.t)
			s.SetTTL(time.Hour)
			require.NoError(t, store.Set(ctx, s.ThreadID, s, time.Hour))

			got, err = store.Get(ctx, "t-1")
			require.NoError(t, err)
			assert.Equal(t, s, got)

			ok, err := store.Exists(ctx, "t-1")
			require.NoError(t, err)
			assert.True(t, ok)

			ttl, err := store.TTL(ctx, "t-1")
			require.NoError(t, err)
			assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

			ttl, err = store.TTL(ctx, "missing")
			require.NoError(t, err)
			assert.Equal(t, NoExpiry, ttl)

			ok, err = store.Extend(ctx, "t-1", 2*time.Hour)
			require.NoError(t, err)
			assert.True(t, ok)
			ttl, err = store.TTL(ctx, "t-1")
			require.NoError(t, err)
			assert.InDelta(t, (2 * time.Hour).Seconds(), ttl.Seconds(), 5)

			ok, err = store.Extend(ctx, "missing", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "t-2", newState("t-2", c.t.Add(time.Minute)), 0))
			ttl, err = store.TTL(ctx, "t-2")
			require.NoError(t, err)
			assert.Equal(t, NoExpiry, ttl)

			require.NoError(t, store.Set(ctx, "other", newState("other", c.t.Add(-48*time.Hour)), time.Hour))

			ids, err := store.List(ctx, "t-*")
			require.NoError(t, err)
			assert.Equal(t, []string{"t-1", "t-2"}, ids)
			ids, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, ids, 3)

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			recent, err := store.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, "t-2", recent[0].ThreadID)
			assert.Equal(t, "t-1", recent[1].ThreadID)

			removed, err := store.Cleanup(ctx, 24*time.Hour)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			ok, err = store.Delete(ctx, "t-2")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = store.Delete(ctx, "t-2")
			require.NoError(t, err)
			assert.False(t, ok)

			if b.clock {
				c.advance(3 * time.Hour)
				got, err = store.Get(ctx, "t-1")
				require.NoError(t, err)
				assert.Nil(t, got, "expired thread should be invisible")
				n, err = store.Count(ctx)
				require.NoError(t, err)
				assert.Zero(t, n)
			}
		})
	}
}

func TestListRejectsBadPattern(t *testing.T) {
	_, err := NewMemoryStore().List(context.Background(), "[")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
