package dedup

import (
	"strings"
	"unicode/utf8"
)

// Similarity scores two texts after lowercasing and collapsing whitespace.
// Identical texts score 1.0. When one text contains the other the score is
// the length ratio. Otherwise it is the Jaccard index of the word sets.
// Two empty texts score 0.
func Similarity(a, b string) float64 {
	s1, s2 := normalize(a), normalize(b)
	if s1 == "" && s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 1
	}

	longer, shorter := s1, s2
	if len(s2) > len(s1) {
		longer, shorter = s2, s1
	}
	if strings.Contains(longer, shorter) {
		return float64(utf8.RuneCountInString(shorter)) / float64(utf8.RuneCountInString(longer))
	}

	return jaccard(strings.Fields(s1), strings.Fields(s2))
}

func jaccard(a, b []string) float64 {
	set := make(map[string]uint8, len(a)+len(b))
	for _, w := range a {
		set[w] |= 1
	}
	for _, w := range b {
		set[w] |= 2
	}
	if len(set) == 0 {
		return 0
	}
	shared := 0
	for _, v := range set {
		if v == 3 {
			shared++
		}
	}
	return float64(shared) / float64(len(set))
}
