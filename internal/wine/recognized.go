package wine

import (
	"time"

	"github.com/google/uuid"
)

// Recognized is the presentation union of a candidate, its match, and the list
// price extracted from its text. ID is fresh per detection; WineID points at
// the matched record's stable identity.
type Recognized struct {
	ID         string      `json:"id"`
	Candidate  Candidate   `json:"candidate"`
	Match      MatchResult `json:"match"`
	ListPrice  *float64    `json:"list_price,omitempty"`
	WineID     string      `json:"wine_id,omitempty"`
	DetectedAt time.Time   `json:"detected_at"`
	LastSeen   time.Time   `json:"last_seen"`
}

// NewRecognized builds a detection with a fresh identity.
func NewRecognized(candidate Candidate, match MatchResult, listPrice *float64, now time.Time) Recognized {
	rec := Recognized{
		ID:         uuid.NewString(),
		Candidate:  candidate,
		Match:      match,
		ListPrice:  listPrice,
		DetectedAt: now,
		LastSeen:   now,
	}
	if match.Matched() {
		rec.WineID = match.Record.ID
	}
	return rec
}

// Matched reports whether the detection resolved to a record.
func (r Recognized) Matched() bool {
	return r.WineID != "" && r.Match.Matched()
}

// Confidence is the match confidence of the detection.
func (r Recognized) Confidence() float64 {
	return r.Match.Confidence
}
