package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"shelver/internal/config"
)

// Store manages queue and history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to a queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add inserts a new entry discovered by a scan. Paths already tracked are
// returned as-is without modification.
func (s *Store) Add(ctx context.Context, entry *Entry) (*Entry, error) {
	if entry == nil {
		return nil, errors.New("entry is nil")
	}
	if existing, err := s.GetBySourcePath(ctx, entry.SourcePath); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	status := entry.Status
	if status == "" {
		status = StatusQueued
	}
	kind := entry.Kind
	if kind == "" {
		kind = KindFolder
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_entries (
            source_path, library_root, kind, structural_tag, status,
            hint_author, hint_title, hint_series, hint_series_pos, hint_narrator, hint_edition, hint_year,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SourcePath,
		nullableString(entry.LibraryRoot),
		string(kind),
		nullableString(entry.StructuralTag),
		status,
		nullableString(entry.Hints.Author),
		nullableString(entry.Hints.Title),
		nullableString(entry.Hints.Series),
		nullableString(entry.Hints.SeriesPos),
		nullableString(entry.Hints.Narrator),
		nullableString(entry.Hints.Edition),
		entry.Hints.Year,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a queue entry by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM queue_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// GetBySourcePath returns the entry tracking a path, or nil.
func (s *Store) GetBySourcePath(ctx context.Context, sourcePath string) (*Entry, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE source_path = ? LIMIT 1`,
		sourcePath,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry by path: %w", err)
	}
	return entry, nil
}

// Update persists changes to an existing queue entry.
func (s *Store) Update(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	entry.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_entries
         SET source_path = ?, library_root = ?, kind = ?, structural_tag = ?, status = ?,
             hint_author = ?, hint_title = ?, hint_series = ?, hint_series_pos = ?,
             hint_narrator = ?, hint_edition = ?, hint_year = ?,
             proposed_author = ?, proposed_title = ?, proposed_series = ?, proposed_series_pos = ?,
             proposed_narrator = ?, proposed_year = ?, proposed_path = ?,
             match_source = ?, similarity = ?, confidence_tier = ?, rationale = ?,
             error_message = ?, retry_count = ?, dismissed = ?, updated_at = ?
         WHERE id = ?`,
		entry.SourcePath,
		nullableString(entry.LibraryRoot),
		string(entry.Kind),
		nullableString(entry.StructuralTag),
		entry.Status,
		nullableString(entry.Hints.Author),
		nullableString(entry.Hints.Title),
		nullableString(entry.Hints.Series),
		nullableString(entry.Hints.SeriesPos),
		nullableString(entry.Hints.Narrator),
		nullableString(entry.Hints.Edition),
		entry.Hints.Year,
		nullableString(entry.Proposal.Author),
		nullableString(entry.Proposal.Title),
		nullableString(entry.Proposal.Series),
		nullableString(entry.Proposal.SeriesPos),
		nullableString(entry.Proposal.Narrator),
		entry.Proposal.Year,
		nullableString(entry.Proposal.Path),
		nullableString(entry.MatchSource),
		entry.Similarity,
		nullableString(entry.ConfidenceTier),
		nullableString(entry.Rationale),
		nullableString(entry.ErrorMessage),
		entry.RetryCount,
		boolToInt(entry.Dismissed),
		entry.UpdatedAt.Format(time.RFC3339Nano),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// List returns queue entries filtered by status set (or all entries when no
// status is provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + entryColumns + ` FROM queue_entries`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// NextBatch returns up to limit queued entries, oldest first.
func (s *Store) NextBatch(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+entryColumns+` FROM queue_entries WHERE status = ? ORDER BY created_at, id LIMIT ?`,
		StatusQueued,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("next batch: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns entry counts keyed by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Delete removes an entry entirely. Normal processing never calls this; it
// backs explicit user deletion only.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM queue_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}
