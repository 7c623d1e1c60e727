package matching

import (
	"regexp"
	"strconv"
	"strings"

	"winelens/internal/wine"
)

var (
	pricePattern       = regexp.MustCompile(`(?i)(?:[$€£]|\busd)\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:[.,]\d{1,2})?)`)
	fullYearPattern    = regexp.MustCompile(`\b(19[5-9]\d|20[0-3]\d)\b`)
	shortYearPattern   = regexp.MustCompile(`(?:^|\s)['’](\d{2})\b`)
	nonVintagePattern  = regexp.MustCompile(`(?i)(?:^|\s)(nv|n\.v\.|non[- ]vintage)(?:\s|$)`)
	barePricePattern   = regexp.MustCompile(`(?:^|\s)(\d{2,4}(?:\.\d{2})?)\s*$`)
	thousandsSeparator = regexp.MustCompile(`,\d{3}$`)
)

// labelWords precede numbers that belong to the wine's name, as in
// "Penfolds Bin 389".
var labelWords = map[string]struct{}{
	"bin": {}, "no": {}, "no.": {}, "nr": {}, "lot": {}, "cuvee": {}, "cuvée": {}, "#": {},
}

// Parsed is candidate text split into the matching query and the vintage and
// list price found in it.
type Parsed struct {
	Original string
	Query    string
	Vintage  *int
	Price    *float64
}

// Parse extracts a price, a vintage, and a non-vintage marker from text and
// returns the remaining text as the query. Four-digit years must fall in
// 1950-2039; apostrophe years map '00-'49 to 20xx and '50-'99 to 19xx.
// Without a currency-prefixed price, a trailing bare number of two to four
// digits is taken as the price unless it reads as a year or follows a label
// word.
func Parse(text string) Parsed {
	p := Parsed{Original: text}
	rest := text

	if loc := pricePattern.FindStringSubmatchIndex(rest); loc != nil {
		if price, ok := parsePrice(rest[loc[2]:loc[3]]); ok {
			p.Price = &price
		}
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	}

	if loc := fullYearPattern.FindStringSubmatchIndex(rest); loc != nil {
		year, _ := strconv.Atoi(rest[loc[2]:loc[3]])
		p.Vintage = &year
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	} else if loc := shortYearPattern.FindStringSubmatchIndex(rest); loc != nil {
		yy, _ := strconv.Atoi(rest[loc[2]:loc[3]])
		year := 1900 + yy
		if yy < 50 {
			year = 2000 + yy
		}
		p.Vintage = &year
		rest = rest[:loc[0]] + " " + rest[loc[1]:]
	}

	if p.Vintage == nil {
		if loc := nonVintagePattern.FindStringIndex(rest); loc != nil {
			rest = rest[:loc[0]] + " " + rest[loc[1]:]
		}
	}

	if p.Price == nil {
		rest = p.takeBarePrice(rest)
	}

	p.Query = strings.Join(strings.Fields(rest), " ")
	return p
}

// NonVintage reports whether the text marks the wine as non-vintage.
func (p Parsed) NonVintage() bool {
	return p.Vintage == nil && nonVintagePattern.MatchString(p.Original)
}

// AcceptsVintage reports whether rec can stand for the parsed text. A parsed
// vintage rules out records of another vintage; an NV marker rules out
// vintage records.
func (p Parsed) AcceptsVintage(rec wine.Record) bool {
	switch {
	case p.Vintage != nil:
		return rec.Vintage == nil || *rec.Vintage == *p.Vintage
	case p.NonVintage():
		return rec.Vintage == nil
	default:
		return true
	}
}

func (p *Parsed) takeBarePrice(rest string) string {
	loc := barePricePattern.FindStringSubmatchIndex(rest)
	if loc == nil {
		return rest
	}
	head := strings.Fields(rest[:loc[2]])
	if len(head) == 0 {
		return rest
	}
	if _, ok := labelWords[strings.ToLower(head[len(head)-1])]; ok {
		return rest
	}
	raw := rest[loc[2]:loc[3]]
	if len(raw) == 4 && raw >= "1800" && raw <= "2099" {
		return rest
	}
	price, ok := parsePrice(raw)
	if !ok {
		return rest
	}
	p.Price = &price
	return rest[:loc[0]]
}

func parsePrice(raw string) (float64, bool) {
	switch {
	case strings.Contains(raw, "."):
		raw = strings.ReplaceAll(raw, ",", "")
	case thousandsSeparator.MatchString(raw):
		raw = strings.ReplaceAll(raw, ",", "")
	default:
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
