package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae", "ß", "ss", "&", " and ", "+", " and ")

// Normalize returns the canonical matching form of text.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lowered := ligatures.Replace(strings.ToLower(text))
	cleaned := clean(stripAccents(lowered))

	tokens := strings.Fields(cleaned)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if expansion, ok := abbreviations[token]; ok {
			out = append(out, expansion)
			continue
		}
		out = append(out, token)
	}
	return strings.Join(out, " ")
}

// Tokens splits the normalized form of text into words.
func Tokens(text string) []string {
	return strings.Fields(Normalize(text))
}

// stripAccents builds its transformer per call; chained transformers carry
// state and must not be shared between goroutines.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// clean keeps letters and digits, hyphens joining two letters, and dots
// joining two digits. Everything else becomes a space.
func clean(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' && between(rs, i, unicode.IsLetter):
			b.WriteRune(r)
		case r == '.' && between(rs, i, unicode.IsDigit):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func between(rs []rune, i int, pred func(rune) bool) bool {
	return i > 0 && i < len(rs)-1 && pred(rs[i-1]) && pred(rs[i+1])
}
