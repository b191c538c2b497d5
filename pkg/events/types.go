package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	SessionStarted       EventType = "session.started"
	SessionReset         EventType = "session.reset"
	TurnProcessed        EventType = "turn.processed"
	StateTransition      EventType = "state.transition"
	ReservationCreated   EventType = "reservation.created"
	ReservationConfirmed EventType = "reservation.confirmed"
	ForwardFailed        EventType = "forward.failed"
	SystemError          EventType = "error"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionStartedData is the payload for session.started events.
type SessionStartedData struct {
	RemoteAddr string `json:"remote_addr,omitempty"`
}

// SessionResetData is the payload for session.reset events.
type SessionResetData struct {
	Reason string `json:"reason"` // "main_menu", "retry_limit", "goodbye"
}

// TurnProcessedData is the payload for turn.processed events.
type TurnProcessedData struct {
	Input      string `json:"input"`
	Response   string `json:"response"`
	Understood bool   `json:"understood"`
	Stage      string `json:"stage"`
	FailCount  int    `json:"fail_count"`
}

// StateTransitionData is the payload for state.transition events.
type StateTransitionData struct {
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	Intent    string `json:"intent,omitempty"`
}

// ReservationData is the payload for reservation.created and
// reservation.confirmed events. BookingURL rides along so the forwarder
// does not need a catalog lookup.
type ReservationData struct {
	Restaurant string `json:"restaurant"`
	BookingURL string `json:"booking_url,omitempty"`
	People     int    `json:"people"`
	Time       string `json:"time"`
	Allergies  string `json:"allergies"`
	Name       string `json:"name"`
}

// ForwardFailedData is the payload for forward.failed events.
type ForwardFailedData struct {
	Restaurant string `json:"restaurant"`
	BookingURL string `json:"booking_url"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error"`
}
