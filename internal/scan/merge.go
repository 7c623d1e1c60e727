package scan

import (
	"time"

	"winelens/internal/wine"
)

// mergeOverlay folds incoming detections into the overlay. A detection whose
// box overlaps an entry by more than threshold of the smaller box replaces it
// only with a better match; otherwise it just refreshes the sighting.
// Detections that overlap nothing are appended.
func mergeOverlay(overlay, incoming []wine.Recognized, threshold float64) []wine.Recognized {
	for _, d := range incoming {
		idx, best := -1, 0.0
		for i := range overlay {
			if r := overlay[i].Candidate.Box.OverlapRatio(d.Candidate.Box); r > threshold && r > best {
				idx, best = i, r
			}
		}
		if idx < 0 {
			overlay = append(overlay, d)
			continue
		}
		seen := maxTime(overlay[idx].LastSeen, d.LastSeen)
		if d.Match.Better(overlay[idx].Match) {
			overlay[idx] = d
		}
		overlay[idx].LastSeen = seen
	}
	return overlay
}

// evictExpired drops overlay entries not seen within ttl of now.
func evictExpired(overlay []wine.Recognized, now time.Time, ttl time.Duration) []wine.Recognized {
	kept := overlay[:0]
	for _, entry := range overlay {
		if now.Sub(entry.LastSeen) <= ttl {
			kept = append(kept, entry)
		}
	}
	clear(overlay[len(kept):])
	return kept
}

// accumulate records a matched detection in the session keyed by WineID.
// It reports the event to emit, or "" when the session did not change.
func accumulate(session *wine.Session, d wine.Recognized) EventType {
	if !d.Matched() {
		return ""
	}
	idx := session.IndexOf(d.WineID)
	if idx < 0 {
		session.Wines = append(session.Wines, d)
		return EventNewMatch
	}
	current := &session.Wines[idx]
	if !d.Match.Better(current.Match) {
		current.LastSeen = maxTime(current.LastSeen, d.LastSeen)
		return ""
	}
	current.Match = d.Match
	current.Candidate = d.Candidate
	if d.ListPrice != nil {
		current.ListPrice = d.ListPrice
	}
	current.LastSeen = maxTime(current.LastSeen, d.LastSeen)
	return EventUpdated
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
