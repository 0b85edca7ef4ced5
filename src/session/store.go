// Package session persists conversation states between turns. Backends
// implement Store; Adapter wraps a Store with per-thread locking and the
// default TTL policy.
package session

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/loxresearch/genie/src/state"
)

const (
	// DefaultTTL applies when a state carries no ttl_seconds.
	DefaultTTL = 24 * time.Hour

	// DefaultKeyPrefix namespaces thread keys in shared stores.
	DefaultKeyPrefix = "thread"

	// NoExpiry is returned by TTL for missing threads and threads without
	// an expiry.
	NoExpiry time.Duration = -1
)

// ErrInvalidPattern is returned when a list pattern is malformed.
var ErrInvalidPattern = errors.New("session: invalid pattern")

// Store is a thread-keyed conversation state store.
type Store interface {
	// Get returns the stored state, or nil without error when absent.
	Get(ctx context.Context, threadID string) (*state.ConversationState, error)
	// Set stores s. A ttl of zero or less stores it without expiry.
	Set(ctx context.Context, threadID string, s *state.ConversationState, ttl time.Duration) error
	Delete(ctx context.Context, threadID string) (bool, error)
	// List returns thread ids matching a glob pattern; "" matches all.
	List(ctx context.Context, pattern string) ([]string, error)
	TTL(ctx context.Context, threadID string) (time.Duration, error)
	Exists(ctx context.Context, threadID string) (bool, error)
	Extend(ctx context.Context, threadID string, ttl time.Duration) (bool, error)
	Count(ctx context.Context) (int, error)
	// Recent returns up to limit states, most recently updated first.
	Recent(ctx context.Context, limit int) ([]*state.ConversationState, error)
	// Cleanup deletes states whose last_updated is older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
	Close() error
}

// StoreError reports a failed store operation on a thread.
type StoreError struct {
	Op       string
	ThreadID string
	Err      error
}

func (e *StoreError) Error() string {
	if e.ThreadID == "" {
		return fmt.Sprintf("session %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session %s %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func normalizePattern(pattern string) (string, error) {
	if pattern == "" {
		return "*", nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return pattern, nil
}

// lessRecent orders states by LastUpdated descending, breaking ties by id.
func lessRecent(a, b *state.ConversationState) bool {
	if !a.LastUpdated.Equal(b.LastUpdated) {
		return a.LastUpdated.After(b.LastUpdated)
	}
	return a.ThreadID < b.ThreadID
}
