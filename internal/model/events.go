package model

import "time"

// EventType identifies the type of event sent to the host
type EventType string

const (
	EventBroadcast  EventType = "broadcast"
	EventTell       EventType = "tell"
	EventConsole    EventType = "console"
	EventRoleSwitch EventType = "role-switch"
)

// Event is a notice or directive for the host runtime
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Identity  Identity  `json:"identity,omitempty"`
	Handle    Handle    `json:"handle,omitempty"`
	Role      Role      `json:"role,omitempty"`
	Message   string    `json:"message,omitempty"`
}
