package textutil

import "strings"

// segmentReplacer replaces filesystem-unsafe characters with safe alternatives.
var segmentReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizePathSegment makes a metadata value safe to use as a single path
// segment. Slashes, colons, and asterisks become dashes, other unsafe runes
// are removed, and leading dots are stripped so a segment can never read as a
// hidden or relative entry.
func SanitizePathSegment(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = segmentReplacer.Replace(name)
	name = multiSpacePattern.ReplaceAllString(name, " ")
	name = strings.TrimLeft(name, ".")
	return strings.TrimSpace(name)
}
