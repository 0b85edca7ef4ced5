package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loxresearch/genie/src/state"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps each state under "<prefix>:<thread_id>" with native key
// expiry.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	owned  bool
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	s := NewRedisStore(rdb, opts.KeyPrefix)
	s.owned = true
	return s, nil
}

// NewRedisStore wraps an existing client. The caller keeps ownership of rdb.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (r *RedisStore) key(threadID string) string {
	return r.prefix + ":" + threadID
}

func (r *RedisStore) Get(ctx context.Context, threadID string) (*state.ConversationState, error) {
	data, err := r.rdb.Get(ctx, r.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state.Unmarshal(data)
}

func (r *RedisStore) Set(ctx context.Context, threadID string, s *state.ConversationState, ttl time.Duration) error {
	data, err := state.Marshal(s)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, r.key(threadID), data, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, threadID string) (bool, error) {
	n, err := r.rdb.Del(ctx, r.key(threadID)).Result()
	return n > 0, err
}

func (r *RedisStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, r.key(pattern), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (r *RedisStore) List(ctx context.Context, pattern string) ([]string, error) {
	pattern, err := normalizePattern(pattern)
	if err != nil {
		return nil, err
	}
	keys, err := r.scanKeys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, r.prefix+":"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *RedisStore) TTL(ctx context.Context, threadID string) (time.Duration, error) {
	d, err := r.rdb.TTL(ctx, r.key(threadID)).Result()
	if err != nil {
		return NoExpiry, err
	}
	// Redis reports -2 for missing keys and -1 for keys without expiry.
	if d < 0 {
		return NoExpiry, nil
	}
	return d, nil
}

func (r *RedisStore) Exists(ctx context.Context, threadID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(threadID)).Result()
	return n > 0, err
}

func (r *RedisStore) Extend(ctx context.Context, threadID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return r.rdb.Persist(ctx, r.key(threadID)).Result()
	}
	return r.rdb.Expire(ctx, r.key(threadID), ttl).Result()
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	keys, err := r.scanKeys(ctx, "*")
	return len(keys), err
}

func (r *RedisStore) loadAll(ctx context.Context) ([]*state.ConversationState, error) {
	keys, err := r.scanKeys(ctx, "*")
	if err != nil || len(keys) == 0 {
		return nil, err
	}
	values, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*state.ConversationState, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Expired between SCAN and MGET.
			continue
		}
		s, err := state.Unmarshal([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", keys[i], err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *RedisStore) Recent(ctx context.Context, limit int) ([]*state.ConversationState, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return lessRecent(all[i], all[j]) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *RedisStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	all, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxAge)
	var stale []string
	for _, s := range all {
		if s.LastUpdated.Before(cutoff) {
			stale = append(stale, r.key(s.ThreadID))
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	n, err := r.rdb.Del(ctx, stale...).Result()
	return int(n), err
}

func (r *RedisStore) Close() error {
	if r.owned {
		return r.rdb.Close()
	}
	return nil
}
