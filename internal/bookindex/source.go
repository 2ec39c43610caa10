package bookindex

import (
	"context"

	"shelver/internal/config"
	"shelver/internal/metadata"
)

// LocalSource adapts the catalog store to the metadata source interface so
// the reconciler can consult it ahead of any network provider.
type LocalSource struct {
	store *Store
}

// NewLocalSource wraps a catalog store.
func NewLocalSource(store *Store) *LocalSource {
	return &LocalSource{store: store}
}

// Name implements metadata.Source.
func (s *LocalSource) Name() string { return config.SourceLocal }

// Lookup implements metadata.Source. The local index is always reachable, so
// an empty result simply means the book is not indexed.
func (s *LocalSource) Lookup(ctx context.Context, query metadata.Query) ([]metadata.Candidate, error) {
	if query.Empty() || s.store == nil {
		return nil, nil
	}
	books, err := s.store.SearchTitle(ctx, query.Title)
	if err != nil {
		return nil, err
	}
	candidates := make([]metadata.Candidate, 0, len(books))
	for _, book := range books {
		candidates = append(candidates, metadata.Candidate{
			Source:    s.Name(),
			Author:    book.Author,
			Title:     book.Title,
			Series:    book.Series,
			SeriesPos: book.SeriesPos,
			Narrator:  book.Narrator,
			Year:      book.Year,
		})
	}
	return candidates, nil
}
