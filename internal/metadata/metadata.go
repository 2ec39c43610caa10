// Package metadata defines the uniform shape shared by every metadata source:
// the lookup query, the candidate result, and the Source interface the
// reconciler consumes.
//
// Sources distinguish two failure modes that must never collapse into one:
// an empty candidate slice with a nil error means the book was deterministically
// not found, while an error wrapping services.ErrLookupUnavailable means the
// source could not answer (network failure, timeout, rate limit). The
// reconciler treats the latter as "unknown" and never lets it drive a
// structural decision.
package metadata

import (
	"context"
	"strings"
)

// Query is the normalized lookup input.
type Query struct {
	Title  string
	Author string
}

// Empty reports whether the query has nothing to search on.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.Title) == ""
}

// Candidate is one source's proposed identification for a query.
type Candidate struct {
	Source    string
	Author    string
	Title     string
	Series    string
	SeriesPos string
	Narrator  string
	Year      int

	// Similarity, AuthorDiverges, and Priority are computed by the
	// reconciler against the query, not by sources. Candidates are
	// comparable only within the same queried item.
	Similarity     float64
	AuthorDiverges bool
	Priority       int
}

// Source is one ranked metadata lookup capability.
type Source interface {
	Name() string
	Lookup(ctx context.Context, query Query) ([]Candidate, error)
}
