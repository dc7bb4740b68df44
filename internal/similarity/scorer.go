// Package similarity provides normalized text similarity scoring used by
// duplicate detection. All functions are pure and tolerate empty input.
package similarity

import (
	"strings"
	"unicode"
)

// Blend weights for Combined. Jaccard over word sets dominates; edit distance
// acts as a secondary signal for short strings with few shared tokens.
const (
	jaccardWeight     = 0.7
	levenshteinWeight = 0.3
)

// Normalize lower-cases, replaces punctuation with spaces, collapses repeated
// whitespace and trims. Deterministic:
// Normalize("Broken Air-Conditioner!!! Unit #123") == "broken air conditioner unit 123".
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Jaccard tokenizes normalized text into word sets and returns
// |intersection| / |union|. Both sides empty yields 0 rather than dividing
// by zero; one side empty yields 0.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Levenshtein computes the classic edit distance between two strings,
// e.g. Levenshtein("kitten", "sitting") == 3.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NGrams returns the set of contiguous substrings of length n after
// normalization. Empty input or n <= 0 yields an empty set.
func NGrams(text string, n int) map[string]struct{} {
	grams := make(map[string]struct{})
	if n <= 0 {
		return grams
	}
	runes := []rune(Normalize(text))
	for i := 0; i+n <= len(runes); i++ {
		grams[string(runes[i:i+n])] = struct{}{}
	}
	return grams
}

// Combined blends Jaccard with a length-normalized Levenshtein score over the
// normalized inputs. Reflexive (Combined(x,x) == 1) and symmetric; inputs that
// normalize to the same string score 1, a single empty side scores 0.
func Combined(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}
	levScore := 1 - float64(Levenshtein(na, nb))/float64(maxLen)
	if levScore < 0 {
		levScore = 0
	}
	score := jaccardWeight*Jaccard(na, nb) + levenshteinWeight*levScore
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(Normalize(text)) {
		set[token] = struct{}{}
	}
	return set
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
