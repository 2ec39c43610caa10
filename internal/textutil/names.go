package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleCaser = cases.Title(language.English)

	commaNamePattern  = regexp.MustCompile(`^\s*([\p{L}'.-]+)\s*,\s*([\p{L}'. -]+?)\s*$`)
	simpleNamePattern = regexp.MustCompile(`^\s*[\p{L}'.-]+(?:\s+[\p{L}'.-]+){1,3}\s*$`)
)

// placeholderAuthors are values that stand in for a missing author and must
// never be treated as a real name when comparing candidates.
var placeholderAuthors = map[string]struct{}{
	"unknown": {}, "unknown author": {}, "various": {}, "various authors": {},
	"va": {}, "n/a": {}, "none": {},
}

// IsPlaceholderAuthor reports whether name is a stand-in for a missing author.
func IsPlaceholderAuthor(name string) bool {
	_, ok := placeholderAuthors[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// NormalizePersonName converts "Last, First" to "First Last", collapses
// whitespace, and repairs all-lowercase or all-uppercase names to title case.
// Mixed-case input is left alone so names like "McCaffrey" survive.
func NormalizePersonName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if m := commaNamePattern.FindStringSubmatch(name); m != nil {
		name = strings.TrimSpace(m[2]) + " " + strings.TrimSpace(m[1])
	}
	name = multiSpacePattern.ReplaceAllString(name, " ")
	if name == strings.ToLower(name) || name == strings.ToUpper(name) {
		name = titleCaser.String(strings.ToLower(name))
	}
	return name
}

// titleishWords disqualify a string from reading as a person's name. Folder
// names like "The Complete Warriors Series" fit the word-count shape of a
// name but carry obvious title vocabulary.
var titleishWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {},
	"complete": {}, "series": {}, "saga": {}, "trilogy": {},
	"collection": {}, "chronicles": {}, "cycle": {}, "box": {}, "set": {},
}

// LooksLikePersonName reports whether value has the shape of a person's name:
// either "Last, First" or two to four capitalized-ish words with no digits
// and no title vocabulary.
func LooksLikePersonName(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, "0123456789") {
		return false
	}
	if IsPlaceholderAuthor(value) {
		return false
	}
	if commaNamePattern.MatchString(value) {
		return true
	}
	if !simpleNamePattern.MatchString(value) {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(value)) {
		if _, ok := titleishWords[word]; ok {
			return false
		}
	}
	return true
}
