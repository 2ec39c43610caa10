package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AddHistory appends an immutable history record. Callers write history
// before advancing the corresponding entry status so a crash between the two
// writes is recoverable from the history side.
func (s *Store) AddHistory(ctx context.Context, record *History) (*History, error) {
	if record == nil {
		return nil, errors.New("history record is nil")
	}
	appliedAt := record.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}

	var undoOf any
	if record.UndoOf != nil {
		undoOf = *record.UndoOf
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO history_entries (
            entry_id, original_path, new_path, applied_at, undo_of, error_message, dismissed
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.EntryID,
		record.OriginalPath,
		record.NewPath,
		appliedAt.Format(time.RFC3339Nano),
		undoOf,
		nullableString(record.ErrorMessage),
		boolToInt(record.Dismissed),
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.HistoryByID(ctx, id)
}

// HistoryByID fetches a history record by identifier.
func (s *Store) HistoryByID(ctx context.Context, id int64) (*History, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, entry_id, original_path, new_path, applied_at, undo_of, error_message, dismissed
         FROM history_entries WHERE id = ?`,
		id,
	)
	record, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return record, nil
}

// HistoryForEntry returns all history records for one queue entry, newest
// first.
func (s *Store) HistoryForEntry(ctx context.Context, entryID int64) ([]*History, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, entry_id, original_path, new_path, applied_at, undo_of, error_message, dismissed
         FROM history_entries WHERE entry_id = ? ORDER BY id DESC`,
		entryID,
	)
	if err != nil {
		return nil, fmt.Errorf("history for entry: %w", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

// ListHistory returns history records newest first, capped at limit when
// limit is positive.
func (s *Store) ListHistory(ctx context.Context, limit int) ([]*History, error) {
	query := `SELECT id, entry_id, original_path, new_path, applied_at, undo_of, error_message, dismissed
        FROM history_entries ORDER BY id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	return collectHistory(rows)
}

// UndoneOf returns the undo record reversing the given history id, or nil.
func (s *Store) UndoneOf(ctx context.Context, historyID int64) (*History, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, entry_id, original_path, new_path, applied_at, undo_of, error_message, dismissed
         FROM history_entries WHERE undo_of = ? LIMIT 1`,
		historyID,
	)
	record, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find undo record: %w", err)
	}
	return record, nil
}

// DismissHistoryError marks an errored history row dismissed. Successful
// history rows are immutable.
func (s *Store) DismissHistoryError(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE history_entries SET dismissed = 1 WHERE id = ? AND error_message IS NOT NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("dismiss history error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("history %d has no error to dismiss", id)
	}
	return nil
}

func collectHistory(rows *sql.Rows) ([]*History, error) {
	var records []*History
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanHistory(scanner interface{ Scan(dest ...any) error }) (*History, error) {
	var (
		id           int64
		entryID      int64
		originalPath string
		newPath      string
		appliedRaw   string
		undoOf       sql.NullInt64
		errorMessage sql.NullString
		dismissed    sql.NullInt64
	)
	if err := scanner.Scan(&id, &entryID, &originalPath, &newPath, &appliedRaw, &undoOf, &errorMessage, &dismissed); err != nil {
		return nil, err
	}
	record := &History{
		ID:           id,
		EntryID:      entryID,
		OriginalPath: originalPath,
		NewPath:      newPath,
		ErrorMessage: errorMessage.String,
		Dismissed:    dismissed.Int64 != 0,
	}
	if undoOf.Valid {
		value := undoOf.Int64
		record.UndoOf = &value
	}
	if applied, err := parseTimeString(appliedRaw); err == nil {
		record.AppliedAt = applied
	}
	return record, nil
}
