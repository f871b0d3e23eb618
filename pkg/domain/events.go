package domain

import "time"

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventEntryCreated EventType = "entry_created"
	EventEntryUpdated EventType = "entry_updated"
	EventEntryRemoved EventType = "entry_removed"
	EventFlowStarted  EventType = "flow_started"
	EventFlowFinished EventType = "flow_finished"
	EventFlowAborted  EventType = "flow_aborted"
)

// Event is broadcast to observers (SSE clients, metrics) when a flow or
// entry changes. Payloads are summaries, never raw entry data.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// FlowID is set for flow events.
	FlowID string `json:"flow_id,omitempty"`
	// EntryID is set for entry events.
	EntryID string `json:"entry_id,omitempty"`
	// Domain is the integration involved, when known.
	Domain string `json:"domain,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType) Event {
	return Event{Timestamp: time.Now().UTC(), Type: t}
}
