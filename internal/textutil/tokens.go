package textutil

import (
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// stopWords are filler words excluded from similarity comparison. Articles and
// series boilerplate would otherwise inflate overlap between unrelated titles.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {},
	"in": {}, "to": {}, "for": {}, "by": {}, "part": {}, "book": {},
	"volume": {},
}

// Tokenize splits text into a lowercase token set with stop words removed.
func Tokenize(text string) map[string]struct{} {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	tokens := make(map[string]struct{}, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		if _, skip := stopWords[token]; skip {
			continue
		}
		tokens[token] = struct{}{}
	}
	return tokens
}

// TokenList returns the significant tokens of text in input order, without
// duplicates. Useful when callers need token counts rather than set membership.
func TokenList(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	seen := make(map[string]struct{}, len(raw))
	list := make([]string, 0, len(raw))
	for _, token := range raw {
		if token == "" {
			continue
		}
		if _, skip := stopWords[token]; skip {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		list = append(list, token)
	}
	return list
}
