package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/loxresearch/genie/src/state"
)

// Adapter is the persistence boundary used by the turn service. It applies
// the TTL policy, wraps backend failures in *StoreError and serializes work
// on the same thread.
type Adapter struct {
	store      Store
	defaultTTL time.Duration
	locks      *keyedMutex
	logger     *slog.Logger
}

// NewAdapter wraps store. A defaultTTL of zero selects DefaultTTL.
func NewAdapter(store Store, defaultTTL time.Duration, logger *slog.Logger) *Adapter {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		store:      store,
		defaultTTL: defaultTTL,
		locks:      newKeyedMutex(),
		logger:     logger.With("component", "session"),
	}
}

// Store returns the underlying backend.
func (a *Adapter) Store() Store {
	return a.store
}

// DefaultTTL returns the TTL applied to states without their own.
func (a *Adapter) DefaultTTL() time.Duration {
	return a.defaultTTL
}

// Lock blocks until the caller holds threadID's critical section and
// returns the release function.
func (a *Adapter) Lock(ctx context.Context, threadID string) (func(), error) {
	return a.locks.Lock(ctx, threadID)
}

// Load returns the stored state for threadID. When none exists it returns a
// fresh state and false. An empty threadID always yields a new thread.
func (a *Adapter) Load(ctx context.Context, threadID string) (*state.ConversationState, bool, error) {
	if threadID == "" {
		return state.New(""), false, nil
	}
	s, err := a.store.Get(ctx, threadID)
	if err != nil {
		return nil, false, &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}
	if s == nil {
		return state.New(threadID), false, nil
	}
	return s, true, nil
}

// Get returns the stored state or nil.
func (a *Adapter) Get(ctx context.Context, threadID string) (*state.ConversationState, error) {
	s, err := a.store.Get(ctx, threadID)
	if err != nil {
		return nil, &StoreError{Op: "get", ThreadID: threadID, Err: err}
	}
	return s, nil
}

// Save persists s under its thread id using its ttl_seconds, or the default
// TTL when it has none.
func (a *Adapter) Save(ctx context.Context, s *state.ConversationState) error {
	ttl := s.TTL()
	if ttl <= 0 {
		ttl = a.defaultTTL
		s.SetTTL(ttl)
	}
	if err := a.store.Set(ctx, s.ThreadID, s, ttl); err != nil {
		a.logger.Error("failed to persist thread", "thread_id", s.ThreadID, "error", err)
		return &StoreError{Op: "set", ThreadID: s.ThreadID, Err: err}
	}
	a.logger.Debug("thread persisted", "thread_id", s.ThreadID, "messages", s.MessageCounts.Total, "ttl", ttl)
	return nil
}

// Delete removes threadID.
func (a *Adapter) Delete(ctx context.Context, threadID string) (bool, error) {
	ok, err := a.store.Delete(ctx, threadID)
	if err != nil {
		return false, &StoreError{Op: "delete", ThreadID: threadID, Err: err}
	}
	return ok, nil
}

// List returns thread ids matching pattern.
func (a *Adapter) List(ctx context.Context, pattern string) ([]string, error) {
	ids, err := a.store.List(ctx, pattern)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return ids, nil
}

// TTL returns the remaining lifetime of threadID, or NoExpiry.
func (a *Adapter) TTL(ctx context.Context, threadID string) (time.Duration, error) {
	d, err := a.store.TTL(ctx, threadID)
	if err != nil {
		return NoExpiry, &StoreError{Op: "ttl", ThreadID: threadID, Err: err}
	}
	return d, nil
}

// Extend sets the expiry budget of threadID to ttl. The budget is written
// into the stored state so later turns keep it.
func (a *Adapter) Extend(ctx context.Context, threadID string, ttl time.Duration) (bool, error) {
	unlock, err := a.locks.Lock(ctx, threadID)
	if err != nil {
		return false, err
	}
	defer unlock()

	s, err := a.store.Get(ctx, threadID)
	if err != nil {
		return false, &StoreError{Op: "extend", ThreadID: threadID, Err: err}
	}
	if s == nil {
		return false, nil
	}
	s.SetTTL(ttl)
	if err := a.store.Set(ctx, threadID, s, ttl); err != nil {
		return false, &StoreError{Op: "extend", ThreadID: threadID, Err: err}
	}
	a.logger.Debug("thread ttl extended", "thread_id", threadID, "ttl", ttl)
	return true, nil
}

// Recent returns the most recently updated threads.
func (a *Adapter) Recent(ctx context.Context, limit int) ([]*state.ConversationState, error) {
	out, err := a.store.Recent(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "recent", Err: err}
	}
	return out, nil
}

// Count returns the number of live threads.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	n, err := a.store.Count(ctx)
	if err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// Cleanup deletes threads idle for longer than maxAge.
func (a *Adapter) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := a.store.Cleanup(ctx, maxAge)
	if err != nil {
		return 0, &StoreError{Op: "cleanup", Err: err}
	}
	if n > 0 {
		a.logger.Info("cleaned up stale threads", "removed", n, "max_age", maxAge)
	}
	return n, nil
}

// keyedMutex hands out one lock per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*keyLock{}}
}

func (k *keyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.release(key, l)
		})
	}, nil
}

func (k *keyedMutex) release(key string, l *keyLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
