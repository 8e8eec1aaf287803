package integrity

// DefaultSimilarityThreshold is the Jaccard cutoff above which a new root item
// is flagged as a likely re-raise of a closed one.
const DefaultSimilarityThreshold = 0.7

// ComputeSimilarityWarn flags closed items whose normalized text is
// near-duplicate to the candidate text, by Jaccard similarity over 3-gram
// character shingles. Strictly advisory: callers attach the result as a
// warning, never as an ingest error. Only new root items are checked;
// derivations are expected to resemble their lineage.
func ComputeSimilarityWarn(normalizedText string, closed []ClosedItem, threshold float64) []string {
	candidate := trigramSet(normalizedText)
	if len(candidate) == 0 {
		return nil
	}

	var warn []string
	for _, c := range closed {
		if jaccard(candidate, trigramSet(c.NormalizedText)) >= threshold {
			warn = append(warn, c.ID)
		}
	}
	return warn
}

// trigramSet builds the set of character 3-grams by sliding a length-3 window
// one character at a time. Characters are runes, so multibyte text shingles
// whole characters. Text shorter than 3 characters yields an empty set.
func trigramSet(text string) map[string]struct{} {
	runes := []rune(text)
	if len(runes) < 3 {
		return nil
	}
	set := make(map[string]struct{}, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// jaccard computes |A ∩ B| / |A ∪ B| over two shingle sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
