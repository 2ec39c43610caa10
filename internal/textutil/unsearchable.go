package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	pureNumberPattern = regexp.MustCompile(`^\d+$`)
	mediaSlicePattern = regexp.MustCompile(`^(?:chapter|chap|ch|disc|disk|cd|track|part|pt|side)\s*[-_ ]?\s*\d+$`)
)

// IsUnsearchable reports whether raw looks like a filename fragment rather
// than a meaningful search query: bare sequence numbers, "chapter 12"-style
// media slices, or a single token under three characters. Searching metadata
// providers with such strings produces garbage matches.
func IsUnsearchable(raw string) bool {
	value := strings.TrimSuffix(raw, filepath.Ext(raw))
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.Trim(value, "-_ ")
	if value == "" {
		return true
	}
	if pureNumberPattern.MatchString(value) {
		return true
	}
	normalized := separatorPattern.ReplaceAllString(value, " ")
	normalized = multiSpacePattern.ReplaceAllString(normalized, " ")
	if mediaSlicePattern.MatchString(normalized) {
		return true
	}
	if !strings.ContainsAny(normalized, " ") && len(normalized) < 3 {
		return true
	}
	return false
}
