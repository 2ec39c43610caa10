// Package bookindex maintains a local catalog of known books backed by
// SQLite. It serves as the offline identification source, letting the engine
// resolve titles without touching the network when the library owner has
// seeded the index.
package bookindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"shelver/internal/config"
	"shelver/internal/textutil"
)

// Book is one catalog record.
type Book struct {
	ID        int64  `json:"-"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	Series    string `json:"series,omitempty"`
	SeriesPos string `json:"series_pos,omitempty"`
	Narrator  string `json:"narrator,omitempty"`
	Year      int    `json:"year,omitempty"`
}

// Store manages the catalog database.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.BookIndexPath())
}

// OpenPath connects to a catalog database at an explicit location.
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

// lookupKey reduces a text to its sorted significant tokens so that word
// order and noise never break an exact-key match.
func lookupKey(text string) string {
	tokens := textutil.TokenList(text)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// Add upserts one book record keyed by normalized author and title.
func (s *Store) Add(ctx context.Context, book Book) error {
	book.Author = strings.TrimSpace(book.Author)
	book.Title = strings.TrimSpace(book.Title)
	if book.Author == "" || book.Title == "" {
		return errors.New("bookindex add: author and title required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (author, title, series, series_pos, narrator, year, author_key, title_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (author_key, title_key) DO UPDATE SET
			author = excluded.author,
			title = excluded.title,
			series = excluded.series,
			series_pos = excluded.series_pos,
			narrator = excluded.narrator,
			year = excluded.year`,
		book.Author,
		book.Title,
		nullableString(book.Series),
		nullableString(book.SeriesPos),
		nullableString(book.Narrator),
		book.Year,
		lookupKey(book.Author),
		lookupKey(book.Title),
	)
	if err != nil {
		return fmt.Errorf("upsert book: %w", err)
	}
	return nil
}

// ImportJSON loads a JSON array of book records and upserts each one. It
// returns the number of records imported.
func (s *Store) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var books []Book
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return 0, fmt.Errorf("decode book list: %w", err)
	}
	imported := 0
	for _, book := range books {
		if err := s.Add(ctx, book); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// SearchTitle returns catalog records whose normalized title matches the
// query title, or shares its tokens when no exact key match exists.
func (s *Store) SearchTitle(ctx context.Context, title string) ([]Book, error) {
	key := lookupKey(title)
	if key == "" {
		return nil, nil
	}
	books, err := s.queryBooks(ctx, "SELECT id, author, title, series, series_pos, narrator, year FROM books WHERE title_key = ? LIMIT 10", key)
	if err != nil {
		return nil, err
	}
	if len(books) > 0 {
		return books, nil
	}

	// No exact key hit: fall back to records containing the query's first
	// token and let the caller score the overlap.
	first := strings.Fields(key)[0]
	return s.queryBooks(ctx,
		"SELECT id, author, title, series, series_pos, narrator, year FROM books WHERE title_key LIKE ? LIMIT 10",
		"%"+first+"%")
}

// SearchAuthor returns catalog records for a normalized author key.
func (s *Store) SearchAuthor(ctx context.Context, author string) ([]Book, error) {
	key := lookupKey(author)
	if key == "" {
		return nil, nil
	}
	return s.queryBooks(ctx, "SELECT id, author, title, series, series_pos, narrator, year FROM books WHERE author_key = ? LIMIT 50", key)
}

// Count reports the number of indexed books.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM books").Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		var book Book
		var series, seriesPos, narrator sql.NullString
		if err := rows.Scan(&book.ID, &book.Author, &book.Title, &series, &seriesPos, &narrator, &book.Year); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		book.Series = series.String
		book.SeriesPos = seriesPos.String
		book.Narrator = narrator.String
		books = append(books, book)
	}
	return books, rows.Err()
}

func nullableString(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
