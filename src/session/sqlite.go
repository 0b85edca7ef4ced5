package session

import (
	"context"
	"fmt"
	"time"

	"github.com/loxresearch/genie/src/state"
	"github.com/loxresearch/genie/src/storage"
)

// SQLiteStore persists states in an embedded SQLite database. Expired rows
// are hidden from reads and purged on write.
type SQLiteStore struct {
	db  *storage.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at path, running migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

func (s *SQLiteStore) expiry(ttl time.Duration) *int64 {
	if ttl <= 0 {
		return nil
	}
	v := s.now().Add(ttl).UnixMilli()
	return &v
}

func (s *SQLiteStore) Get(ctx context.Context, threadID string) (*state.ConversationState, error) {
	t, err := storage.GetThread(ctx, s.db.DB(), threadID, s.nowMillis())
	if err != nil || t == nil {
		return nil, err
	}
	return state.Unmarshal(t.State)
}

func (s *SQLiteStore) Set(ctx context.Context, threadID string, cs *state.ConversationState, ttl time.Duration) error {
	data, err := state.Marshal(cs)
	if err != nil {
		return err
	}
	now := s.nowMillis()
	if _, err := storage.PurgeExpiredThreads(ctx, s.db.DB(), now); err != nil {
		return err
	}
	return storage.UpsertThread(ctx, s.db.DB(), &storage.Thread{
		ID:           threadID,
		State:        data,
		Status:       string(cs.Status),
		MessageCount: cs.MessageCounts.Total,
		CreatedAt:    cs.CreatedAt.UnixMilli(),
		UpdatedAt:    cs.LastUpdated.UnixMilli(),
		ExpiresAt:    s.expiry(ttl),
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, threadID string) (bool, error) {
	return storage.DeleteThread(ctx, s.db.DB(), threadID, s.nowMillis())
}

func (s *SQLiteStore) List(ctx context.Context, pattern string) ([]string, error) {
	pattern, err := normalizePattern(pattern)
	if err != nil {
		return nil, err
	}
	ids, err := storage.ListThreadIDs(ctx, s.db.DB(), pattern, s.nowMillis())
	if ids == nil {
		ids = []string{}
	}
	return ids, err
}

func (s *SQLiteStore) TTL(ctx context.Context, threadID string) (time.Duration, error) {
	now := s.nowMillis()
	t, err := storage.GetThread(ctx, s.db.DB(), threadID, now)
	if err != nil {
		return NoExpiry, err
	}
	if t == nil || t.ExpiresAt == nil {
		return NoExpiry, nil
	}
	return time.Duration(*t.ExpiresAt-now) * time.Millisecond, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, threadID string) (bool, error) {
	t, err := storage.GetThread(ctx, s.db.DB(), threadID, s.nowMillis())
	return t != nil, err
}

func (s *SQLiteStore) Extend(ctx context.Context, threadID string, ttl time.Duration) (bool, error) {
	return storage.SetThreadExpiry(ctx, s.db.DB(), threadID, s.expiry(ttl), s.nowMillis())
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	return storage.CountThreads(ctx, s.db.DB(), s.nowMillis())
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*state.ConversationState, error) {
	if limit <= 0 {
		limit = -1
	}
	threads, err := storage.RecentThreads(ctx, s.db.DB(), limit, s.nowMillis())
	if err != nil {
		return nil, err
	}
	out := make([]*state.ConversationState, 0, len(threads))
	for _, t := range threads {
		cs, err := state.Unmarshal(t.State)
		if err != nil {
			return nil, fmt.Errorf("thread %s: %w", t.ID, err)
		}
		out = append(out, cs)
	}
	return out, nil
}

func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	now := s.now()
	if _, err := storage.PurgeExpiredThreads(ctx, s.db.DB(), now.UnixMilli()); err != nil {
		return 0, err
	}
	return storage.DeleteThreadsUpdatedBefore(ctx, s.db.DB(), now.Add(-maxAge).UnixMilli(), now.UnixMilli())
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
