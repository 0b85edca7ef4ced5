package session

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/loxresearch/genie/src/state"
)

type memoryEntry struct {
	data      []byte
	updated   time.Time
	expiresAt time.Time
}

// MemoryStore keeps serialized states in process memory. Expired entries are
// dropped lazily.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) live(id string) (memoryEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return e, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		return e, false
	}
	return e, true
}

func (m *MemoryStore) Get(ctx context.Context, threadID string) (*state.ConversationState, error) {
	m.mu.RLock()
	e, ok := m.live(threadID)
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return state.Unmarshal(e.data)
}

func (m *MemoryStore) Set(ctx context.Context, threadID string, s *state.ConversationState, ttl time.Duration) error {
	data, err := state.Marshal(s)
	if err != nil {
		return err
	}
	e := memoryEntry{data: data, updated: s.LastUpdated}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[threadID] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, threadID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(threadID)
	delete(m.entries, threadID)
	return ok, nil
}

func (m *MemoryStore) List(ctx context.Context, pattern string) ([]string, error) {
	pattern, err := normalizePattern(pattern)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := []string{}
	for id := range m.entries {
		if _, ok := m.live(id); !ok {
			continue
		}
		if matched, _ := path.Match(pattern, id); matched {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) TTL(ctx context.Context, threadID string) (time.Duration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.live(threadID)
	if !ok || e.expiresAt.IsZero() {
		return NoExpiry, nil
	}
	return e.expiresAt.Sub(m.now()), nil
}

func (m *MemoryStore) Exists(ctx context.Context, threadID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.live(threadID)
	return ok, nil
}

func (m *MemoryStore) Extend(ctx context.Context, threadID string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(threadID)
	if !ok {
		return false, nil
	}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	m.entries[threadID] = e
	return true, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	ids, err := m.List(ctx, "")
	return len(ids), err
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]*state.ConversationState, error) {
	m.mu.RLock()
	var out []*state.ConversationState
	for id := range m.entries {
		e, ok := m.live(id)
		if !ok {
			continue
		}
		s, err := state.Unmarshal(e.data)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return lessRecent(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.entries {
		if _, ok := m.live(id); !ok {
			delete(m.entries, id)
			continue
		}
		if e.updated.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
