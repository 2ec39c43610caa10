// Package structure inspects on-disk paths and decides what kind of library
// item each one is before any metadata lookup runs.
package structure

import "fmt"

// Tag is the structural classification of a scanned item.
type Tag string

const (
	// TagStandard is an ordinary author/title book folder.
	TagStandard Tag = "standard"
	// TagSeriesContainer is a folder whose children are individual books.
	TagSeriesContainer Tag = "series_container"
	// TagMultiBookCollection is a packed multi-book release.
	TagMultiBookCollection Tag = "multi_book_collection"
	// TagReversed is a hierarchy with author and title segments swapped.
	TagReversed Tag = "reversed"
	// TagLooseFile is an audio or ebook file outside a book folder.
	TagLooseFile Tag = "loose_file"
	// TagNarratorVariant is a title folder carrying a narrator or edition
	// suffix that must be preserved.
	TagNarratorVariant Tag = "narrator_variant"
	// TagSystemSkip marks system or hidden paths that are never processed.
	TagSystemSkip Tag = "system_skip"
)

// Terminal reports whether items with this tag are excluded from book-level
// reconciliation.
func (t Tag) Terminal() bool {
	switch t {
	case TagSeriesContainer, TagMultiBookCollection, TagSystemSkip:
		return true
	default:
		return false
	}
}

// ParseTag converts a stored string back into a Tag.
func ParseTag(value string) (Tag, error) {
	switch Tag(value) {
	case TagStandard, TagSeriesContainer, TagMultiBookCollection, TagReversed,
		TagLooseFile, TagNarratorVariant, TagSystemSkip:
		return Tag(value), nil
	default:
		return "", fmt.Errorf("unknown structural tag %q", value)
	}
}
