package structure

import (
	"path/filepath"
	"regexp"
	"strings"

	"shelver/internal/queue"
	"shelver/internal/textutil"
)

var seriesPosPattern = regexp.MustCompile(`^\s*#?(\d{1,3}(?:\.\d)?)[\s.\-_]+(\S.*)$`)

// ParseHints extracts author, title, series, and variant hints from an
// item's path segments, honoring the structural tag's orientation. Hints are
// best-effort search inputs, never authoritative metadata.
func ParseHints(in Input, tag Tag) queue.Hints {
	var hints queue.Hints
	if len(in.Segments) == 0 {
		return hints
	}

	name := in.Segments[len(in.Segments)-1]
	if !in.IsDir {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		hints.Title = textutil.CleanTitle(base)
		hints.Year = textutil.ExtractYear(base)
		if len(in.Segments) >= 2 {
			parent := in.Segments[len(in.Segments)-2]
			if textutil.LooksLikePersonName(parent) {
				hints.Author = textutil.NormalizePersonName(parent)
			}
		}
		return hints
	}

	titleRaw := name
	switch {
	case tag == TagReversed && len(in.Segments) >= 2:
		// Swapped orientation: the folder names the author, its parent the title.
		hints.Author = textutil.NormalizePersonName(name)
		titleRaw = in.Segments[len(in.Segments)-2]
	case len(in.Segments) >= 3 && textutil.LooksLikePersonName(in.Segments[len(in.Segments)-3]):
		hints.Author = textutil.NormalizePersonName(in.Segments[len(in.Segments)-3])
		hints.Series = textutil.CleanTitle(in.Segments[len(in.Segments)-2])
	case len(in.Segments) >= 2:
		hints.Author = textutil.NormalizePersonName(in.Segments[len(in.Segments)-2])
	}

	if suffix, ok := parentheticalSuffix(titleRaw); ok {
		consumed := false
		if textutil.LooksLikePersonName(suffix) {
			hints.Narrator = textutil.NormalizePersonName(suffix)
			consumed = true
		} else if textutil.ExtractYear(suffix) == 0 && !strings.ContainsAny(suffix, "0123456789") {
			hints.Edition = suffix
			consumed = true
		}
		if consumed {
			titleRaw = strings.TrimSpace(suffixPattern.ReplaceAllString(titleRaw, ""))
		}
	}
	if match := seriesPosPattern.FindStringSubmatch(titleRaw); match != nil {
		hints.SeriesPos = strings.TrimLeft(match[1], "0")
		if hints.SeriesPos == "" {
			hints.SeriesPos = "0"
		}
		titleRaw = match[2]
	}
	hints.Year = textutil.ExtractYear(titleRaw)
	hints.Title = textutil.CleanTitle(titleRaw)
	return hints
}
