package identification

// Policy centralizes the similarity thresholds that gate candidate
// acceptance. The values were chosen empirically; changing them changes
// safety behavior, so they are carried as explicit overridable settings
// rather than buried constants.
type Policy struct {
	// GarbageSimilarity is the floor below which a candidate is discarded
	// outright.
	GarbageSimilarity float64
	// LenientGarbageSimilarity replaces the floor for very short titles,
	// where a single shared token moves the score a long way.
	LenientGarbageSimilarity float64
	// ShortTitleTokens is the token count at or below which the lenient
	// floor applies.
	ShortTitleTokens int
	// AutoApplySimilarity is the score at or above which a candidate with a
	// non-diverging author qualifies for automatic application.
	AutoApplySimilarity float64
	// DrasticOverlapRatio is the author-token overlap below which a proposed
	// author correction counts as drastic.
	DrasticOverlapRatio float64
}

// DefaultPolicy returns the tuned thresholds.
func DefaultPolicy() Policy {
	return Policy{
		GarbageSimilarity:        0.30,
		LenientGarbageSimilarity: 0.20,
		ShortTitleTokens:         2,
		AutoApplySimilarity:      0.85,
		DrasticOverlapRatio:      0.30,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.GarbageSimilarity <= 0 || p.GarbageSimilarity >= 1 {
		p.GarbageSimilarity = d.GarbageSimilarity
	}
	if p.LenientGarbageSimilarity <= 0 || p.LenientGarbageSimilarity > p.GarbageSimilarity {
		p.LenientGarbageSimilarity = d.LenientGarbageSimilarity
	}
	if p.ShortTitleTokens <= 0 {
		p.ShortTitleTokens = d.ShortTitleTokens
	}
	if p.AutoApplySimilarity <= p.GarbageSimilarity || p.AutoApplySimilarity > 1 {
		p.AutoApplySimilarity = d.AutoApplySimilarity
	}
	if p.DrasticOverlapRatio <= 0 || p.DrasticOverlapRatio >= 1 {
		p.DrasticOverlapRatio = d.DrasticOverlapRatio
	}

	return p
}
