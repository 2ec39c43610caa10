package textutil

// JaccardSimilarity computes intersection-over-union of the significant token
// sets of a and b. Two empty token sets compare as 0, not 1, so blank metadata
// fields never read as perfect matches.
func JaccardSimilarity(a, b string) float64 {
	tokensA := Tokenize(a)
	tokensB := Tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	var intersection int
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TokenOverlapRatio returns the share of a's significant tokens that also
// appear in b. Used for author comparison, where the shorter name is often a
// subset of the longer one ("Boyett" vs "Steven Boyett").
func TokenOverlapRatio(a, b string) float64 {
	tokensA := Tokenize(a)
	tokensB := Tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}
	var shared int
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(tokensA))
}

// SharesToken reports whether a and b have at least one significant token in
// common.
func SharesToken(a, b string) bool {
	tokensA := Tokenize(a)
	if len(tokensA) == 0 {
		return false
	}
	for token := range Tokenize(b) {
		if _, ok := tokensA[token]; ok {
			return true
		}
	}
	return false
}
