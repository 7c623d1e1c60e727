package segment

import (
	"math"
	"testing"

	"winelens/internal/wine"
)

func frag(text string, x, y, w, h, conf float64) wine.Fragment {
	return wine.Fragment{Text: text, Box: wine.BoundingBox{X: x, Y: y, Width: w, Height: h}, Confidence: conf}
}

func TestGroupSeparatesRowsByGap(t *testing.T) {
	fragments := []wine.Fragment{
		frag("Opus One 2018", 0.1, 0.60, 0.5, 0.05, 0.9),
		frag("Chateau Margaux 2015", 0.1, 0.40, 0.5, 0.05, 0.9),
	}
	got := GroupIntoWineEntries(fragments, DefaultOptions())
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	if got[0].Text != "Chateau Margaux 2015" || got[1].Text != "Opus One 2018" {
		t.Fatalf("unexpected order: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestGroupJoinsContiguousLines(t *testing.T) {
	fragments := []wine.Fragment{
		frag("Ridge", 0.1, 0.10, 0.2, 0.03, 0.8),
		frag("Monte Bello", 0.1, 0.13, 0.3, 0.03, 0.6),
		frag("Santa Cruz Mountains", 0.1, 0.16, 0.4, 0.03, 0.8),
		frag("2016", 0.1, 0.19, 0.1, 0.03, 0.6),
	}
	got := GroupIntoWineEntries(fragments, DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.Text != "Ridge Monte Bello Santa Cruz Mountains 2016" {
		t.Fatalf("text = %q", c.Text)
	}
	if c.LineCount != 4 {
		t.Fatalf("line count = %d", c.LineCount)
	}
	if math.Abs(c.Confidence-0.7) > 1e-9 {
		t.Fatalf("confidence = %v", c.Confidence)
	}
	if math.Abs(c.Box.MinY()-0.10) > 1e-9 || math.Abs(c.Box.MaxY()-0.22) > 1e-9 {
		t.Fatalf("box = %+v", c.Box)
	}
}

func TestGroupAllGapsAboveThreshold(t *testing.T) {
	fragments := []wine.Fragment{
		frag("Sassicaia 2019", 0.1, 0.1, 0.4, 0.02, 0.9),
		frag("Tignanello 2020", 0.1, 0.2, 0.4, 0.02, 0.9),
		frag("Ornellaia 2018", 0.1, 0.3, 0.4, 0.02, 0.9),
	}
	if got := GroupIntoWineEntries(fragments, DefaultOptions()); len(got) != len(fragments) {
		t.Fatalf("expected %d candidates, got %d", len(fragments), len(got))
	}
}

func TestGroupOrdersSameLineLeftToRight(t *testing.T) {
	fragments := []wine.Fragment{
		frag("$185", 0.7, 0.399, 0.1, 0.04, 0.9),
		frag("Ch. Margaux 2015", 0.1, 0.40, 0.4, 0.04, 0.9),
	}
	got := GroupIntoWineEntries(fragments, DefaultOptions())
	if len(got) != 1 || got[0].Text != "Ch. Margaux 2015 $185" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if got[0].LineCount != 1 {
		t.Fatalf("line count = %d", got[0].LineCount)
	}
}

func TestGroupDropsShortAndBlank(t *testing.T) {
	fragments := []wine.Fragment{
		frag("ab", 0.1, 0.1, 0.1, 0.02, 0.9),
		frag("   ", 0.1, 0.5, 0.1, 0.02, 0.9),
	}
	if got := GroupIntoWineEntries(fragments, DefaultOptions()); len(got) != 0 {
		t.Fatalf("expected no candidates, got %+v", got)
	}
	if got := GroupIntoWineEntries(nil, DefaultOptions()); got != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestFilterDropsBoilerplate(t *testing.T) {
	for _, text := range []string{"Page 3 of 12", "By the Glass", "Wine List", "Wines by the Bottle", "42", "Red Wines", "Hours", "Corkage fee"} {
		if got := FilterCandidates([]wine.Candidate{{Text: text}}, DefaultOptions()); len(got) != 0 {
			t.Errorf("expected %q to be filtered", text)
		}
	}
}

func TestFilterKeepsWineRows(t *testing.T) {
	for _, text := range []string{
		"Opus One 2018",
		"Sassicaia $420",
		"Kistler Chardonnay",
		"Ridge Monte Bello",
		"Ch. Margaux",
		"Opus One 420",
		"Dom. Tempier Bandol '19",
		"Krug Grande Cuvée NV",
	} {
		if got := FilterCandidates([]wine.Candidate{{Text: text}}, DefaultOptions()); len(got) != 1 {
			t.Errorf("expected %q to be kept", text)
		}
	}
}

func TestFilterWordCountFallbackKeepsUnknownRows(t *testing.T) {
	// Three words with no wine signal still pass; a wasted match attempt is
	// cheaper than a silently dropped wine.
	got := FilterCandidates([]wine.Candidate{{Text: "Cocktails Beer Spirits"}}, DefaultOptions())
	if len(got) != 1 {
		t.Fatalf("expected fallback to keep the row")
	}
	strict := Options{MinWords: 4}
	if got := FilterCandidates([]wine.Candidate{{Text: "Cocktails Beer Spirits"}}, strict); len(got) != 0 {
		t.Fatalf("expected MinWords=4 to drop the row")
	}
}

func TestSegmentFiltersPageMarker(t *testing.T) {
	fragments := []wine.Fragment{
		frag("Page 3 of 12", 0.4, 0.95, 0.2, 0.02, 0.9),
		frag("Opus One 2018 $450", 0.1, 0.10, 0.6, 0.03, 0.9),
	}
	got := Segment(fragments, DefaultOptions())
	if len(got) != 1 || got[0].Text != "Opus One 2018 $450" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}
