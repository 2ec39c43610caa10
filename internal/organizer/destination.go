// Package organizer builds canonical destination paths and executes renames
// under the library-boundary, depth, and no-merge guarantees.
package organizer

import (
	"fmt"
	"path/filepath"
	"strings"

	"shelver/internal/config"
	"shelver/internal/queue"
	"shelver/internal/services"
	"shelver/internal/textutil"
)

// BuildDestination renders the destination path for a proposal, relative to
// the entry's library root. For loose files the result is the book folder;
// the file itself keeps its original name inside it.
func BuildDestination(naming config.Naming, proposal queue.Proposal) (string, error) {
	author := textutil.SanitizePathSegment(proposal.Author)
	title := titleSegment(naming, proposal)
	if author == "" || title == "" {
		return "", services.Wrap(services.ErrValidation, "organizing", "build destination", "author and title required", nil)
	}

	segments := []string{author}
	if naming.Format == config.NamingAuthorSeries && proposal.Series != "" {
		series := textutil.SanitizePathSegment(proposal.Series)
		if series != "" {
			segments = append(segments, series)
			if proposal.SeriesPos != "" {
				title = fmt.Sprintf("%s - %s", paddedPosition(proposal.SeriesPos), title)
			}
		}
	}
	segments = append(segments, title)
	return filepath.Join(segments...), nil
}

func titleSegment(naming config.Naming, proposal queue.Proposal) string {
	title := textutil.SanitizePathSegment(proposal.Title)
	if title == "" {
		return ""
	}
	if naming.IncludeYear && proposal.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, proposal.Year)
	}
	if naming.IncludeNarrator && proposal.Narrator != "" {
		narrator := textutil.SanitizePathSegment(proposal.Narrator)
		if narrator != "" {
			title = fmt.Sprintf("%s {%s}", title, narrator)
		}
	}
	return title
}

// paddedPosition zero-pads single-digit series positions so lexical sort
// matches reading order. Fractional positions pass through untouched.
func paddedPosition(pos string) string {
	pos = strings.TrimSpace(pos)
	if len(pos) == 1 && pos[0] >= '0' && pos[0] <= '9' {
		return "0" + pos
	}
	return pos
}
