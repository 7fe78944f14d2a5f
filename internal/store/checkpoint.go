package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/glossarion/glossarion/internal/models"
)

// CheckpointStore persists import progress markers. The table replaces the
// in-memory job registry the platform previously used: markers survive
// process restart and are visible to every runner process sharing the
// database.
type CheckpointStore struct {
	Base
}

// NewCheckpointStore creates a CheckpointStore with the given shared base.
func NewCheckpointStore(base Base) *CheckpointStore {
	return &CheckpointStore{Base: base}
}

// Statuses returns the current status of each key that has one. Keys with
// no stored checkpoint are absent from the result.
func (s *CheckpointStore) Statuses(ctx context.Context, keys []string) (map[string]models.CheckpointStatus, error) {
	if len(keys) == 0 {
		return map[string]models.CheckpointStatus{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT key, status FROM import_checkpoints WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("querying checkpoint statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.CheckpointStatus, len(keys))

	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, fmt.Errorf("scanning checkpoint: %w", err)
		}

		out[key] = models.CheckpointStatus(status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating checkpoints: %w", err)
	}

	return out, nil
}

// MarkDoneBulk marks the given keys done within tx, so the advance commits
// atomically with the batch rows it covers.
func (s *CheckpointStore) MarkDoneBulk(ctx context.Context, tx Tx, sourceID string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	valueParts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*2)

	for i, key := range keys {
		valueParts = append(valueParts, fmt.Sprintf("($%d, $%d, 'done')", i*2+1, i*2+2))
		args = append(args, key, sourceID)
	}

	sql := `INSERT INTO import_checkpoints (key, source_id, status)
		VALUES ` + strings.Join(valueParts, ", ") + `
		ON CONFLICT (key) DO UPDATE
		SET status = 'done', reason = '', updated_at = NOW()`

	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("marking checkpoints done: %w", err)
	}

	return nil
}

// MarkFailed records a failed key with a reason within tx. Failed keys are
// retried by later incremental runs.
func (s *CheckpointStore) MarkFailed(ctx context.Context, tx Tx, sourceID, key, reason string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := tx.Exec(ctx, `
		INSERT INTO import_checkpoints (key, source_id, status, reason)
		VALUES ($1, $2, 'failed', $3)
		ON CONFLICT (key) DO UPDATE
		SET status = 'failed', reason = $3, updated_at = NOW()
	`, key, sourceID, reason)
	if err != nil {
		return fmt.Errorf("marking checkpoint failed: %w", err)
	}

	return nil
}

// MarkFailedBulk records every key as failed with a shared reason. Unlike
// the transactional markers this writes straight to the pool: it is the
// best-effort path taken after a batch rolls back, when no transaction is
// open and the database may be the thing that just failed.
func (s *CheckpointStore) MarkFailedBulk(ctx context.Context, sourceID string, keys []string, reason string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	valueParts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)*3)

	for i, key := range keys {
		base := i*3 + 1
		valueParts = append(valueParts, fmt.Sprintf("($%d, $%d, 'failed', $%d)", base, base+1, base+2))
		args = append(args, key, sourceID, reason)
	}

	sql := `INSERT INTO import_checkpoints (key, source_id, status, reason)
		VALUES ` + strings.Join(valueParts, ", ") + `
		ON CONFLICT (key) DO UPDATE
		SET status = 'failed', reason = EXCLUDED.reason, updated_at = NOW()`

	if _, err := s.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("marking checkpoints failed: %w", err)
	}

	return nil
}

// Reset deletes every checkpoint for a source, forcing the next
// incremental run over that source to start from scratch. Checkpoints are
// never deleted automatically; this is the explicit reset the admin
// tooling exposes.
func (s *CheckpointStore) Reset(ctx context.Context, sourceID string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM import_checkpoints WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, fmt.Errorf("resetting checkpoints: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
