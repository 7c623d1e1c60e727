package search

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"winelens/internal/wine"
)

// Hit is one ranked search result.
type Hit struct {
	Record     wine.Record `json:"record"`
	Confidence float64     `json:"confidence"`
}

// Filters narrows a single search.
type Filters struct {
	Vintage int        `json:"vintage,omitempty"`
	Color   wine.Color `json:"color,omitempty"`
	Country string     `json:"country,omitempty"`
	Limit   int        `json:"limit,omitempty"`
}

// CacheKey returns a stable string representation of the filters.
func (f Filters) CacheKey() string {
	var b strings.Builder
	b.WriteString("v=")
	b.WriteString(strconv.Itoa(f.Vintage))
	b.WriteString("|c=")
	b.WriteString(string(f.Color))
	b.WriteString("|n=")
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Country)))
	return b.String()
}

// Searcher is the remote search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, filters Filters) ([]Hit, error)
	BatchSearch(ctx context.Context, queries []string) (map[string]Hit, error)
}

// Top returns the highest-confidence hit.
func Top(hits []Hit) (Hit, bool) {
	if len(hits) == 0 {
		return Hit{}, false
	}
	return slices.MaxFunc(hits, func(a, b Hit) int {
		switch {
		case a.Confidence < b.Confidence:
			return -1
		case a.Confidence > b.Confidence:
			return 1
		default:
			return 0
		}
	}), true
}
