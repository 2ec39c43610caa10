package structure

import (
	"regexp"
	"strings"

	"shelver/internal/textutil"
)

// Input describes one scanned item. Segments are the path elements from the
// library root down to the item itself; ChildDirs lists the names of the
// item's immediate subdirectories when the item is a folder.
type Input struct {
	Segments  []string
	IsDir     bool
	ChildDirs []string
}

// Classification is the classifier's verdict for one item.
type Classification struct {
	Tag           Tag
	LowConfidence bool
	Reason        string
}

var systemSkipNames = map[string]struct{}{
	"metadata": {},
	"tmp":      {},
	"cache":    {},
	"@eadir":   {},
	"#recycle": {},
}

var (
	bookChildPattern  = regexp.MustCompile(`(?i)^\s*(?:#\s*\d|\d{1,3}[\s.\-_]|book\s*\d|vol(?:ume)?\.?\s*\d)`)
	collectionPattern = regexp.MustCompile(`(?i)(?:complete\s+(?:series|collection)|box\s*set|\d+[\s-]*book\s+set)`)
	suffixPattern     = regexp.MustCompile(`[(\[]([^)\]]+)[)\]]\s*$`)
)

// SkipSegment reports whether a single path segment identifies a system or
// hidden folder. Scanners call this before constructing an item at all.
func SkipSegment(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, ".") || strings.HasPrefix(trimmed, "@") {
		return true
	}
	_, known := systemSkipNames[strings.ToLower(trimmed)]
	return known
}

// Classify assigns a structural tag to one item. Rules run in priority
// order; ties degrade to standard with a low-confidence flag rather than
// guessing a drastic structural change.
func Classify(in Input) Classification {
	for _, segment := range in.Segments {
		if SkipSegment(segment) {
			return Classification{Tag: TagSystemSkip, Reason: "system or hidden path segment " + segment}
		}
	}
	if len(in.Segments) == 0 {
		return Classification{Tag: TagSystemSkip, Reason: "empty path"}
	}

	name := in.Segments[len(in.Segments)-1]
	if !in.IsDir {
		return Classification{Tag: TagLooseFile, Reason: "file outside a book folder"}
	}

	if bookLike := countBookLikeChildren(in.ChildDirs); bookLike >= 2 {
		return Classification{Tag: TagSeriesContainer, Reason: "folder holds multiple numbered book folders"}
	}
	if collectionPattern.MatchString(name) {
		return Classification{Tag: TagMultiBookCollection, Reason: "collection marker in folder name"}
	}

	if len(in.Segments) < 2 {
		// Book folder directly under the root: no author segment to orient by.
		return Classification{Tag: TagStandard, LowConfidence: true, Reason: "no author folder above title"}
	}

	parent := in.Segments[len(in.Segments)-2]
	nameIsPerson := textutil.LooksLikePersonName(name)
	parentIsPerson := textutil.LooksLikePersonName(parent)
	switch {
	case nameIsPerson && !parentIsPerson:
		return Classification{Tag: TagReversed, Reason: "title folder names a person while parent does not"}
	case nameIsPerson && parentIsPerson:
		// Both levels could be the author. Do not guess a swap.
		return Classification{Tag: TagStandard, LowConfidence: true, Reason: "author and title folders both name-like"}
	}

	if suffix, ok := parentheticalSuffix(name); ok {
		if textutil.LooksLikePersonName(suffix) && !strings.EqualFold(suffix, parent) {
			return Classification{Tag: TagNarratorVariant, Reason: "narrator suffix " + suffix}
		}
	}

	return Classification{Tag: TagStandard}
}

func countBookLikeChildren(children []string) int {
	count := 0
	for _, child := range children {
		if bookChildPattern.MatchString(child) {
			count++
		}
	}
	return count
}

func parentheticalSuffix(name string) (string, bool) {
	match := suffixPattern.FindStringSubmatch(name)
	if match == nil {
		return "", false
	}
	suffix := strings.TrimSpace(match[1])
	if suffix == "" {
		return "", false
	}
	return suffix, true
}
