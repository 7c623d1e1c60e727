package scan

import (
	"time"

	"winelens/internal/wine"
)

// State is the scanning lifecycle state.
type State int

const (
	StateIdle State = iota
	StateScanning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// EventType classifies tracker events.
type EventType string

const (
	// EventNewMatch fires when a wine joins the session.
	EventNewMatch EventType = "new_match"
	// EventUpdated fires when a session entry gets a better match.
	EventUpdated EventType = "updated"
	// EventSessionReset fires when the session is cleared or archived.
	EventSessionReset EventType = "session_reset"
)

// Event reports a session change. Wine is zero for EventSessionReset.
type Event struct {
	Type      EventType
	SessionID string
	Wine      wine.Recognized
	At        time.Time
}
