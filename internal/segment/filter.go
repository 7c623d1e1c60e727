package segment

import (
	"regexp"
	"strings"

	"winelens/internal/textnorm"
	"winelens/internal/wine"
)

// boilerplate is matched against the normalized candidate text.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`^(the )?wine list$`),
	regexp.MustCompile(`^(wines? )?by the (glass|bottle|half bottle)$`),
	regexp.MustCompile(`^page \d+( of \d+)?$`),
	regexp.MustCompile(`^\d+(\.\d+)?$`),
	regexp.MustCompile(`^(red|white|rose|sparkling|dessert|fortified|orange) wines?$`),
	regexp.MustCompile(`^(half bottles|large formats?|magnums|wine menu|menu|reserve list)$`),
	regexp.MustCompile(`^(continued|cont)$`),
}

var (
	vintagePattern    = regexp.MustCompile(`\b(19[5-9]\d|20[0-3]\d)\b|'\d{2}\b`)
	pricePattern      = regexp.MustCompile(`(?i)(?:[$€£]|\busd)\s?\d+(?:[.,]\d{1,2})?`)
	trailingPriceLike = regexp.MustCompile(`\b\d{2,4}(?:\.\d{2})?$`)
)

var keywords = map[string]struct{}{
	"chateau": {}, "domaine": {}, "reserve": {}, "riserva": {}, "reserva": {}, "cuvee": {},
	"vineyard": {}, "vineyards": {}, "estate": {}, "clos": {}, "cru": {}, "brut": {},
	"cabernet": {}, "sauvignon": {}, "merlot": {}, "pinot": {}, "noir": {}, "grigio": {},
	"chardonnay": {}, "syrah": {}, "shiraz": {}, "grenache": {}, "riesling": {},
	"tempranillo": {}, "sangiovese": {}, "nebbiolo": {}, "malbec": {}, "zinfandel": {},
	"gewurztraminer": {}, "viognier": {}, "chenin": {}, "gamay": {}, "mourvedre": {},
	"blanc": {}, "rouge": {}, "rosso": {}, "bianco": {}, "tinto": {},
	"bordeaux": {}, "burgundy": {}, "bourgogne": {}, "champagne": {}, "rioja": {},
	"barolo": {}, "barbaresco": {}, "brunello": {}, "chianti": {}, "montalcino": {},
	"napa": {}, "sonoma": {}, "willamette": {}, "mosel": {}, "rhone": {}, "priorat": {},
	"margaux": {}, "pauillac": {}, "pomerol": {}, "chablis": {}, "sancerre": {},
	"meursault": {}, "montrachet": {}, "amarone": {}, "prosecco": {}, "cava": {},
	"port": {}, "sauternes": {}, "tokaji": {}, "marlborough": {}, "barossa": {},
}

// FilterCandidates drops boilerplate and keeps candidates that look like a
// wine entry.
func FilterCandidates(candidates []wine.Candidate, opts Options) []wine.Candidate {
	opts = opts.normalized()
	out := make([]wine.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if keep(c.Text, opts) {
			out = append(out, c)
		}
	}
	return out
}

// Segment groups and filters in one pass.
func Segment(fragments []wine.Fragment, opts Options) []wine.Candidate {
	return FilterCandidates(GroupIntoWineEntries(fragments, opts), opts)
}

func keep(text string, opts Options) bool {
	normalized := textnorm.Normalize(text)
	if normalized == "" {
		return false
	}
	for _, re := range boilerplate {
		if re.MatchString(normalized) {
			return false
		}
	}
	if hasWineSignal(text, normalized) {
		return true
	}
	return len(strings.Fields(normalized)) >= opts.MinWords
}

func hasWineSignal(raw, normalized string) bool {
	if vintagePattern.MatchString(raw) || pricePattern.MatchString(raw) {
		return true
	}
	tokens := strings.Fields(normalized)
	for _, token := range tokens {
		if _, ok := keywords[token]; ok {
			return true
		}
		for _, part := range strings.Split(token, "-") {
			if _, ok := keywords[part]; ok {
				return true
			}
		}
	}
	// "Opus One 420" style rows: a name followed by an unmarked price.
	return len(tokens) >= 2 && trailingPriceLike.MatchString(normalized)
}
