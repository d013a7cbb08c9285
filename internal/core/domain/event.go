package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a type that represents the type of an event
type EventType string

const (
	EventSessionStarted    EventType = "SessionStarted"
	EventClientConnected   EventType = "ClientConnected"
	EventTransferCompleted EventType = "TransferCompleted"
	EventTransferFailed    EventType = "TransferFailed"
	EventSessionStopped    EventType = "SessionStopped"
)

// Event is a session notification
type Event struct {
	Type      EventType     `json:"type"`
	SessionID uuid.UUID     `json:"session_id"`
	Mode      Mode          `json:"mode"`
	Remote    string        `json:"remote,omitempty"`
	Route     string        `json:"route,omitempty"`
	File      string        `json:"file,omitempty"`
	Bytes     int64         `json:"bytes,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Error     string        `json:"error,omitempty"`
	State     SessionState  `json:"state,omitempty"`
	At        time.Time     `json:"at"`
}

// NewEvent creates an event stamped with the current time
func NewEvent(t EventType, cfg SessionConfig) Event {
	return Event{
		Type:      t,
		SessionID: cfg.ID,
		Mode:      cfg.Mode,
		At:        time.Now(),
	}
}
