package textnorm

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/dotcypress/phonetics"
)

const (
	weightTokens   = 0.4
	weightEdit     = 0.4
	weightPhonetic = 0.2

	// tokenFloor drops token pairs too far apart to count as the same word.
	tokenFloor = 0.5
)

// Similarity scores a and b in [0,1] after normalization.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return NormalizedSimilarity(na, nb)
}

// NormalizedSimilarity scores two strings that are already normalized.
func NormalizedSimilarity(na, nb string) float64 {
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	ta, tb := strings.Fields(na), strings.Fields(nb)
	score := weightTokens*softOverlap(ta, tb) +
		weightEdit*editSimilarity(na, nb) +
		weightPhonetic*phoneticOverlap(ta, tb)
	return min(1, max(0, score))
}

func editSimilarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// softOverlap averages, in both directions, how well each token is covered by
// its closest counterpart.
func softOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return (coverage(a, b) + coverage(b, a)) / 2
}

func coverage(from, to []string) float64 {
	total := 0.0
	for _, x := range from {
		best := 0.0
		for _, y := range to {
			if x == y {
				best = 1
				break
			}
			if s := editSimilarity(x, y); s > best {
				best = s
			}
		}
		if best >= tokenFloor {
			total += best
		}
	}
	return total / float64(len(from))
}

func phoneticOverlap(a, b []string) float64 {
	ca, cb := soundexSet(a), soundexSet(b)
	if len(ca) == 0 && len(cb) == 0 {
		return softOverlap(a, b)
	}
	if len(ca) == 0 || len(cb) == 0 {
		return 0
	}
	shared := 0
	for code := range ca {
		if _, ok := cb[code]; ok {
			shared++
		}
	}
	union := len(ca) + len(cb) - shared
	return float64(shared) / float64(union)
}

func soundexSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if code := soundex(token); code != "" {
			out[code] = struct{}{}
		}
	}
	return out
}

// soundex returns the Soundex code of a word, or "" when the word does not
// start with an ASCII letter.
func soundex(word string) string {
	if word == "" {
		return ""
	}
	if c := word[0] | 0x20; c < 'a' || c > 'z' {
		return ""
	}
	return phonetics.EncodeSoundex(word)
}
