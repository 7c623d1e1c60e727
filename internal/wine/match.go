package wine

// Tier names the matching stage that resolved a candidate.
type Tier string

const (
	TierExact       Tier = "exact"
	TierFuzzyLocal  Tier = "fuzzy-local"
	TierFuzzyRemote Tier = "fuzzy-remote"
	TierNone        Tier = "none"
)

// Rank orders tiers from cheapest and most certain (0) to no match.
func (t Tier) Rank() int {
	switch t {
	case TierExact:
		return 0
	case TierFuzzyLocal:
		return 1
	case TierFuzzyRemote:
		return 2
	default:
		return 3
	}
}

// MatchResult is the resolution of one candidate.
type MatchResult struct {
	Record         *Record `json:"record,omitempty"`
	Confidence     float64 `json:"confidence"`
	MatchedVintage *int    `json:"matched_vintage,omitempty"`
	Tier           Tier    `json:"tier"`
}

// NoMatch is the result for a candidate no tier could resolve.
func NoMatch() MatchResult {
	return MatchResult{Tier: TierNone}
}

// Matched reports whether the result carries a record.
func (m MatchResult) Matched() bool {
	return m.Record != nil && m.Tier != TierNone
}

// Better reports whether m should replace other: matches beat non-matches,
// higher confidence wins, and ties prefer the cheaper tier.
func (m MatchResult) Better(other MatchResult) bool {
	if m.Matched() != other.Matched() {
		return m.Matched()
	}
	if m.Confidence != other.Confidence {
		return m.Confidence > other.Confidence
	}
	return m.Tier.Rank() < other.Tier.Rank()
}
