package sampler

import "strings"

// wordSet is the set of lowercased whitespace-separated words of a text.
type wordSet map[string]struct{}

func newWordSet(text string) wordSet {
	set := make(wordSet)
	set.add(text)
	return set
}

func (s wordSet) add(text string) {
	for _, w := range strings.Fields(strings.ToLower(text)) {
		s[w] = struct{}{}
	}
}

// jaccard compares two word sets. An empty union counts as identical.
func (s wordSet) jaccard(other wordSet) float64 {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(s) + len(other) - inter
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}

// Jaccard returns the word-set overlap of a and b in [0, 1]. Two texts without
// any words are treated as maximally similar.
func Jaccard(a, b string) float64 {
	return newWordSet(a).jaccard(newWordSet(b))
}
