package sampler

import (
	"math"
	"strings"
)

// Score returned before any analysis for very short or fragmentary texts.
const (
	shortTextScore    = 0.1
	fewWordsScore     = 0.2
	minQualityScore   = 0.05
	minTextChars      = 10
	minWords          = 3
	longTextWordCount = 20
)

// wordTrimChars are stripped from both ends of a word before counting.
const wordTrimChars = ".,!?;:"

type wordPair struct {
	first, second string
}

// Evaluate scores a single text for lexical and structural quality.
//
// Rich, varied, punctuated prose lands around 0.5-0.75. Repetitive text is
// pushed down by a repetition penalty and anything whose penalty exceeds 1.0
// is floored near zero regardless of its other features. Every input,
// including the empty string, yields a finite score in [0.05, 1.0].
func Evaluate(text string) float64 {
	runes := []rune(text)
	textLen := len(runes)
	if textLen < minTextChars {
		return shortTextScore
	}

	words := strings.Fields(text)
	wordCount := len(words)
	if wordCount < minWords {
		return fewWordsScore
	}

	normalized := normalizeWords(words)

	wordFreq := make(map[string]int, len(normalized))
	maxWordFreq := 0
	for _, w := range normalized {
		wordFreq[w]++
		if wordFreq[w] > maxWordFreq {
			maxWordFreq = wordFreq[w]
		}
	}

	bigrams, totalBigrams := charBigrams(runes)
	maxBigramFreq := 0
	for _, freq := range bigrams {
		if freq > maxBigramFreq {
			maxBigramFreq = freq
		}
	}

	wordRatio := float64(maxWordFreq) / float64(wordCount)
	bigramRatio := float64(maxBigramFreq) / float64(totalBigrams)
	entropy := normalizedEntropy(bigrams, totalBigrams)
	repeatedRatio := float64(repeatedChars(runes)) / float64(textLen)
	ttr := float64(len(wordFreq)) / float64(wordCount)
	pairRepetition := wordPairRepetition(normalized)
	punctuation := punctuationScore(text, wordCount)
	diversity := charDiversity(runes)

	penalty := 0.0
	if wordRatio > 0.1 {
		penalty += math.Pow(wordRatio, 1.5) * 2.0
	}
	if bigramRatio > 0.08 {
		penalty += math.Pow(bigramRatio, 1.5) * 2.5
	}
	if diversity < 0.2 {
		penalty += (0.2 - diversity) * 3.0
	}
	penalty += repeatedRatio * 2.0
	penalty += pairRepetition

	base := 0.3*ttr + 0.2*entropy + 0.2*punctuation + 0.1*diversity

	if penalty > 1.0 {
		return math.Max(minQualityScore, 0.1-(penalty-1.0)*0.05)
	}
	return math.Max(minQualityScore, base-penalty)
}

// normalizeWords lowercases words and strips surrounding punctuation,
// dropping anything left empty.
func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), wordTrimChars)
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// charBigrams counts every overlapping two-character window of the raw text.
// Frequencies are returned in order of first appearance so that sums over
// them are reproducible. The returned total is floored at 1.
func charBigrams(runes []rune) ([]int, int) {
	slot := make(map[[2]rune]int)
	var freqs []int
	for i := 0; i+1 < len(runes); i++ {
		key := [2]rune{runes[i], runes[i+1]}
		j, ok := slot[key]
		if !ok {
			j = len(freqs)
			slot[key] = j
			freqs = append(freqs, 0)
		}
		freqs[j]++
	}
	total := len(runes) - 1
	if total < 1 {
		total = 1
	}
	return freqs, total
}

// normalizedEntropy returns the Shannon entropy of the bigram distribution
// divided by its maximum, clamped to [0, 1].
func normalizedEntropy(freqs []int, total int) float64 {
	if total <= 1 {
		return 0.5
	}
	entropy := 0.0
	for _, freq := range freqs {
		p := float64(freq) / float64(total)
		entropy -= p * math.Log2(p)
	}
	n := entropy / math.Log2(float64(total))
	return math.Min(1, math.Max(0, n))
}

// repeatedChars counts characters beyond the second in each run of an
// identical character.
func repeatedChars(runes []rune) int {
	repeated := 0
	run := 0
	var prev rune
	for i, r := range runes {
		if i > 0 && r == prev {
			run++
			if run > 2 {
				repeated++
			}
			continue
		}
		prev = r
		run = 1
	}
	return repeated
}

// wordPairRepetition adds 0.2 for every distinct adjacent word pair that
// occurs at least three times.
func wordPairRepetition(words []string) float64 {
	if len(words) < 2 {
		return 0
	}
	counts := make(map[wordPair]int, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		counts[wordPair{words[i], words[i+1]}]++
	}
	score := 0.0
	for _, c := range counts {
		if c >= 3 {
			score += 0.2
		}
	}
	return score
}

// punctuationScore rates sentence structure for texts longer than twenty words.
func punctuationScore(text string, wordCount int) float64 {
	if wordCount <= longTextWordCount {
		return 0.5
	}
	terminators := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if terminators == 0 {
		return 0.2
	}
	avg := float64(wordCount) / float64(terminators)
	switch {
	case avg > 30:
		return 0.3
	case avg < 3:
		return 0.4
	default:
		return 0.8
	}
}

// charDiversity is the ratio of distinct to total characters once plain
// spaces are removed.
func charDiversity(runes []rune) float64 {
	seen := make(map[rune]struct{})
	total := 0
	for _, r := range runes {
		if r == ' ' {
			continue
		}
		total++
		seen[r] = struct{}{}
	}
	if total == 0 {
		return 0
	}
	return float64(len(seen)) / float64(total)
}
