package wine

import (
	"time"

	"github.com/google/uuid"
)

// Location is where a scan session took place.
type Location struct {
	Label     string  `json:"label,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session is the cumulative list of distinct wines recognized since the scan
// was started or resumed. Wines holds at most one entry per WineID.
type Session struct {
	ID        string       `json:"id"`
	StartedAt time.Time    `json:"started_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Location  *Location    `json:"location,omitempty"`
	Wines     []Recognized `json:"wines"`
}

// NewSession starts an empty session.
func NewSession(now time.Time, location *Location) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		UpdatedAt: now,
		Location:  location,
		Wines:     []Recognized{},
	}
}

// IndexOf returns the position of the entry for wineID, or -1.
func (s *Session) IndexOf(wineID string) int {
	for i := range s.Wines {
		if s.Wines[i].WineID == wineID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to readers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Wines = append([]Recognized(nil), s.Wines...)
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	return &out
}

// HistoryEntry is a finalized session in the bounded history log.
type HistoryEntry struct {
	Session Session   `json:"session"`
	EndedAt time.Time `json:"ended_at"`
}
