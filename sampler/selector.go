package sampler

import (
	"math"
	"unicode/utf8"
)

// Phase records how a text entered the selection.
type Phase string

const (
	PhaseSeed   Phase = "seed"
	PhaseGrowth Phase = "growth"
)

// seedLengthChars is the length at which a seed candidate earns the full
// length bonus.
const seedLengthChars = 500

// Pick describes one selected text.
type Pick struct {
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	Chars     int     `json:"chars"`
	Quality   float64 `json:"quality"`
	Diversity float64 `json:"diversity"`
	Combined  float64 `json:"combined"`
	Phase     Phase   `json:"phase"`
}

type candidate struct {
	index   int
	chars   int
	quality float64
	words   wordSet
}

// selection is owned by a single selectDiverse call. refWords holds the
// word set of every selected text joined together, which is all the
// similarity metric ever reads from the accumulated reference.
type selection struct {
	picks    []Pick
	refWords wordSet
	chars    int
}

func (s *selection) add(c candidate, text string, diversity, combined float64, phase Phase) {
	for w := range c.words {
		s.refWords[w] = struct{}{}
	}
	s.chars += c.chars
	s.picks = append(s.picks, Pick{
		Index:     c.index,
		Text:      text,
		Chars:     c.chars,
		Quality:   c.quality,
		Diversity: diversity,
		Combined:  combined,
		Phase:     phase,
	})
}

// selectDiverse greedily picks pool members: one seed chosen by quality and
// length, then the candidates least similar to everything chosen so far
// until the character budget is spent. Picks are returned in the order
// they were made.
func selectDiverse(texts []string, pool []int, scores []float64, budgetChars int) *selection {
	sel := &selection{refWords: make(wordSet)}
	if len(pool) == 0 {
		return sel
	}

	remaining := make([]candidate, len(pool))
	for i, idx := range pool {
		remaining[i] = candidate{
			index:   idx,
			chars:   utf8.RuneCountInString(texts[idx]),
			quality: scores[idx],
			words:   newWordSet(texts[idx]),
		}
	}

	// Seed ignores the budget.
	seed, seedScore := 0, -1.0
	for i, c := range remaining {
		lengthScore := math.Min(1, float64(c.chars)/seedLengthChars)
		combined := 0.7*c.quality + 0.3*lengthScore
		if combined > seedScore {
			seed, seedScore = i, combined
		}
	}
	c := remaining[seed]
	// the seed has nothing to differ from
	sel.add(c, texts[c.index], 0, seedScore, PhaseSeed)
	remaining = removeAt(remaining, seed)

	for len(remaining) > 0 && sel.chars < budgetChars {
		best, bestScore, bestDiversity := -1, -1.0, 0.0
		for i, c := range remaining {
			if sel.chars+c.chars > budgetChars {
				continue
			}
			diversity := 1 - c.words.jaccard(sel.refWords)
			combined := 0.1*c.quality + 0.9*diversity
			if combined > bestScore {
				best, bestScore, bestDiversity = i, combined, diversity
			}
		}
		if best < 0 {
			break
		}
		c := remaining[best]
		sel.add(c, texts[c.index], bestDiversity, bestScore, PhaseGrowth)
		remaining = removeAt(remaining, best)
	}
	return sel
}

func removeAt(cs []candidate, i int) []candidate {
	return append(cs[:i], cs[i+1:]...)
}
