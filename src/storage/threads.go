package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgysavva/scany/v2/sqlscan"
)

const threadColumns = `id, state, status, message_count, created_at, updated_at, expires_at`

// live filters out expired rows; now is unix milliseconds.
const live = `(expires_at IS NULL OR expires_at > ?)`

// GetThread retrieves a live thread by its ID
func GetThread(ctx context.Context, db sqlscan.Querier, id string, now int64) (*Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE id = ? AND ` + live
	var t Thread
	err := sqlscan.Get(ctx, db, &t, query, id, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &t, nil
}

// UpsertThread inserts a thread or replaces the stored state of an existing
// one, keeping its original created_at.
func UpsertThread(ctx context.Context, db Execer, t *Thread) error {
	query := `INSERT INTO threads (` + threadColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		state = excluded.state,
		status = excluded.status,
		message_count = excluded.message_count,
		updated_at = excluded.updated_at,
		expires_at = excluded.expires_at`
	_, err := db.ExecContext(ctx, query, t.ID, t.State, t.Status, t.MessageCount, t.CreatedAt, t.UpdatedAt, t.ExpiresAt)
	return err
}

// DeleteThread deletes a thread and reports whether a live row existed.
func DeleteThread(ctx context.Context, db Execer, id string, now int64) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM threads WHERE id = ? AND `+live, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListThreadIDs returns live thread ids matching a GLOB pattern.
func ListThreadIDs(ctx context.Context, db sqlscan.Querier, pattern string, now int64) ([]string, error) {
	var ids []string
	err := sqlscan.Select(ctx, db, &ids, `SELECT id FROM threads WHERE id GLOB ? AND `+live+` ORDER BY id`, pattern, now)
	return ids, err
}

// SetThreadExpiry updates expires_at for a live thread. A nil expiresAt
// removes the expiry.
func SetThreadExpiry(ctx context.Context, db Execer, id string, expiresAt *int64, now int64) (bool, error) {
	res, err := db.ExecContext(ctx, `UPDATE threads SET expires_at = ? WHERE id = ? AND `+live, expiresAt, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountThreads counts live threads.
func CountThreads(ctx context.Context, db sqlscan.Querier, now int64) (int, error) {
	var n int
	err := sqlscan.Get(ctx, db, &n, `SELECT COUNT(*) FROM threads WHERE `+live, now)
	return n, err
}

// RecentThreads returns up to limit live threads, most recently updated first.
func RecentThreads(ctx context.Context, db sqlscan.Querier, limit int, now int64) ([]Thread, error) {
	var threads []Thread
	query := `SELECT ` + threadColumns + ` FROM threads WHERE ` + live + ` ORDER BY updated_at DESC, id LIMIT ?`
	err := sqlscan.Select(ctx, db, &threads, query, now, limit)
	return threads, err
}

// DeleteThreadsUpdatedBefore deletes live threads last updated before cutoff.
func DeleteThreadsUpdatedBefore(ctx context.Context, db Execer, cutoff, now int64) (int, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM threads WHERE updated_at < ? AND `+live, cutoff, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// PurgeExpiredThreads removes rows whose expiry has passed.
func PurgeExpiredThreads(ctx context.Context, db Execer, now int64) (int, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM threads WHERE expires_at IS NOT NULL AND expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
