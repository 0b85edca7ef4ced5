package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxresearch/genie/src/state"
)

type failingStore struct {
	*MemoryStore
	err error
}

func (f *failingStore) Set(ctx context.Context, threadID string, s *state.ConversationState, ttl time.Duration) error {
	return f.err
}

func (f *failingStore) Get(ctx context.Context, threadID string) (*state.ConversationState, error) {
	return nil, f.err
}

func TestAdapterLoadAndSave(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryStore(), 0, nil)
	assert.Equal(t, DefaultTTL, a.DefaultTTL())

	s, found, err := a.Load(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotEmpty(t, s.ThreadID)

	s, found, err = a.Load(ctx, "thread-9")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "thread-9", s.ThreadID)

	s.AppendHuman("hi")
	require.NoError(t, a.Save(ctx, s))
	require.NotNil(t, s.TTLSeconds)
	assert.Equal(t, int64(DefaultTTL/time.Second), *s.TTLSeconds)

	loaded, found, err := a.Load(ctx, "thread-9")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, s, loaded)

	ttl, err := a.TTL(ctx, "thread-9")
	require.NoError(t, err)
	assert.InDelta(t, DefaultTTL.Seconds(), ttl.Seconds(), 5)
}

func TestAdapterKeepsStateTTL(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryStore(), time.Hour, nil)
	s := state.New("short")
	s.SetTTL(10 * time.Minute)
	require.NoError(t, a.Save(ctx, s))

	ttl, err := a.TTL(ctx, "short")
	require.NoError(t, err)
	assert.InDelta(t, (10 * time.Minute).Seconds(), ttl.Seconds(), 5)
}

func TestAdapterExtendSurvivesNextSave(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryStore(), 0, nil)

	s := state.New("long-lived")
	s.AppendHuman("keep this one around")
	require.NoError(t, a.Save(ctx, s))

	week := 7 * 24 * time.Hour
	ok, err := a.Extend(ctx, "long-lived", week)
	require.NoError(t, err)
	assert.True(t, ok)

	loaded, found, err := a.Load(ctx, "long-lived")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, week, loaded.TTL())

	loaded.AppendHuman("next turn")
	require.NoError(t, a.Save(ctx, loaded))

	ttl, err := a.TTL(ctx, "long-lived")
	require.NoError(t, err)
	assert.InDelta(t, week.Seconds(), ttl.Seconds(), 5)

	ok, err = a.Extend(ctx, "missing", week)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdapterWrapsStoreErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	a := NewAdapter(&failingStore{MemoryStore: NewMemoryStore(), err: boom}, 0, nil)

	err := a.Save(ctx, state.New("x"))
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "set", se.Op)
	assert.Equal(t, "x", se.ThreadID)
	assert.ErrorIs(t, err, boom)

	_, _, err = a.Load(ctx, "x")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	ctx := context.Background()
	k := newKeyedMutex()

	var mu sync.Mutex
	active, peak := 0, 0
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "thread")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			peak = max(peak, active)
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, peak)
	assert.Zero(t, k.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	ctx := context.Background()
	k := newKeyedMutex()
	unlockA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	unlockB, err := k.Lock(ctx, "b")
	require.NoError(t, err)
	unlockA()
	unlockB()
	unlockB()
	assert.Zero(t, k.size())
}

func TestKeyedMutexHonorsContext(t *testing.T) {
	k := newKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
