package queue

import (
	"context"
	"fmt"
	"time"
)

// ResetStuckProcessing returns entries left in processing (a prior crash) back
// to queued. The filesystem is the source of truth for applied renames, so a
// re-run is always safe.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_entries
         SET status = ?, rationale = 'Reset from stuck processing', updated_at = ?
         WHERE status = ?`,
		StatusQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck entries: %w", err)
	}
	return res.RowsAffected()
}

// RetryErrored moves errored entries back to queued for reprocessing. With no
// ids every non-dismissed errored entry is retried.
func (s *Store) RetryErrored(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_entries
             SET status = ?, error_message = NULL, retry_count = 0, updated_at = ?
             WHERE status = ? AND dismissed = 0`,
			StatusQueued,
			timestamp,
			StatusError,
		)
		if err != nil {
			return 0, fmt.Errorf("retry errored entries: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusQueued, timestamp, StatusError)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE queue_entries
        SET status = ?, error_message = NULL, retry_count = 0, updated_at = ?
        WHERE status = ? AND id IN (` + placeholders + `)`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry selected entries: %w", err)
	}
	return res.RowsAffected()
}

// DismissError hides an errored entry from default listings without deleting
// it.
func (s *Store) DismissError(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_entries SET dismissed = 1, updated_at = ? WHERE id = ? AND status = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusError,
	)
	if err != nil {
		return fmt.Errorf("dismiss error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("entry %d is not in error status", id)
	}
	return nil
}
