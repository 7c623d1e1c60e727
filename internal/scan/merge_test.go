package scan

import (
	"testing"
	"time"

	"winelens/internal/wine"
)

var t0 = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

func detect(wineID string, box wine.BoundingBox, confidence float64, seen time.Time) wine.Recognized {
	match := wine.NoMatch()
	if wineID != "" {
		rec := wine.Record{ID: wineID, Producer: wineID}
		match = wine.MatchResult{Record: &rec, Confidence: confidence, Tier: wine.TierFuzzyLocal}
	}
	return wine.NewRecognized(wine.Candidate{Text: wineID, Box: box}, match, nil, seen)
}

func box(y float64) wine.BoundingBox {
	return wine.BoundingBox{X: 0.1, Y: y, Width: 0.5, Height: 0.05}
}

func TestMergeOverlayAppendsDisjoint(t *testing.T) {
	overlay := mergeOverlay(nil, []wine.Recognized{
		detect("a", box(0.1), 0.8, t0),
		detect("b", box(0.5), 0.8, t0),
	}, 0.5)
	if len(overlay) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(overlay))
	}
}

func TestMergeOverlayKeepsBetterMatch(t *testing.T) {
	low := detect("a", box(0.1), 0.72, t0)
	high := detect("a", box(0.11), 0.9, t0.Add(time.Second))

	overlay := mergeOverlay(nil, []wine.Recognized{low}, 0.5)
	overlay = mergeOverlay(overlay, []wine.Recognized{high}, 0.5)
	if len(overlay) != 1 || overlay[0].Match.Confidence != 0.9 {
		t.Fatalf("expected higher confidence to win, got %+v", overlay)
	}

	older := detect("a", box(0.1), 0.75, t0.Add(2*time.Second))
	overlay = mergeOverlay(overlay, []wine.Recognized{older}, 0.5)
	if overlay[0].Match.Confidence != 0.9 {
		t.Fatalf("lower confidence replaced entry: %v", overlay[0].Match.Confidence)
	}
	if !overlay[0].LastSeen.Equal(t0.Add(2 * time.Second)) {
		t.Fatalf("last seen not refreshed: %v", overlay[0].LastSeen)
	}
}

func TestMergeOverlayIsIdempotent(t *testing.T) {
	d := detect("a", box(0.1), 0.8, t0)
	once := mergeOverlay(nil, []wine.Recognized{d}, 0.5)
	twice := mergeOverlay(append([]wine.Recognized(nil), once...), []wine.Recognized{d}, 0.5)
	if len(twice) != 1 || twice[0].ID != once[0].ID {
		t.Fatalf("re-applying a detection changed the overlay: %+v", twice)
	}
}

func TestMergeOverlayOrderIndependent(t *testing.T) {
	a := detect("a", box(0.1), 0.7, t0)
	b := detect("a", box(0.1), 0.9, t0)

	ab := mergeOverlay(mergeOverlay(nil, []wine.Recognized{a}, 0.5), []wine.Recognized{b}, 0.5)
	ba := mergeOverlay(mergeOverlay(nil, []wine.Recognized{b}, 0.5), []wine.Recognized{a}, 0.5)
	if len(ab) != 1 || len(ba) != 1 || ab[0].ID != ba[0].ID {
		t.Fatalf("merge order changed the result: %+v vs %+v", ab, ba)
	}
}

func TestEvictExpired(t *testing.T) {
	overlay := []wine.Recognized{
		detect("old", box(0.1), 0.8, t0),
		detect("new", box(0.5), 0.8, t0.Add(2*time.Second)),
	}
	kept := evictExpired(overlay, t0.Add(4*time.Second), 3*time.Second)
	if len(kept) != 1 || kept[0].WineID != "new" {
		t.Fatalf("unexpected overlay after eviction: %+v", kept)
	}
}

func TestAccumulate(t *testing.T) {
	session := wine.NewSession(t0, nil)

	if got := accumulate(session, detect("", box(0.1), 0, t0)); got != "" {
		t.Fatalf("unmatched detection produced %q", got)
	}
	if got := accumulate(session, detect("a", box(0.1), 0.75, t0)); got != EventNewMatch {
		t.Fatalf("first sighting = %q", got)
	}
	if got := accumulate(session, detect("a", box(0.6), 0.75, t0.Add(time.Second))); got != "" {
		t.Fatalf("equal confidence = %q", got)
	}
	price := 120.0
	better := detect("a", box(0.6), 0.9, t0.Add(2*time.Second))
	better.ListPrice = &price
	if got := accumulate(session, better); got != EventUpdated {
		t.Fatalf("better sighting = %q", got)
	}
	if got := accumulate(session, detect("b", box(0.1), 0.8, t0)); got != EventNewMatch {
		t.Fatalf("second wine = %q", got)
	}

	if len(session.Wines) != 2 {
		t.Fatalf("expected 2 wines, got %d", len(session.Wines))
	}
	a := session.Wines[session.IndexOf("a")]
	if a.Match.Confidence != 0.9 || a.ListPrice == nil || *a.ListPrice != 120 {
		t.Fatalf("entry not updated: %+v", a)
	}
	if !a.LastSeen.Equal(t0.Add(2 * time.Second)) {
		t.Fatalf("last seen = %v", a.LastSeen)
	}
}
