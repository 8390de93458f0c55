package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventTicketUpdated    EventType = "ticket_updated"
	EventTicketDeleted    EventType = "ticket_deleted"
	EventTicketReplyAdded EventType = "ticket_reply_added"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketUpdated,
	EventTicketDeleted,
	EventTicketReplyAdded,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticketId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title           string `json:"title"`
	ApplicationName string `json:"applicationName"`
	PriorityID      int    `json:"priorityId"`
	StatusID        int    `json:"statusId"`
	TicketTypeID    int    `json:"ticketTypeId"`
}

// TicketUpdatedPayload payload. Changes maps field name to old/new values.
type TicketUpdatedPayload struct {
	Changes map[string]any `json:"changes"`
	Version int            `json:"version"`
}

// TicketReplyAddedPayload payload.
type TicketReplyAddedPayload struct {
	ReplyID     int64  `json:"replyId"`
	BodyPreview string `json:"bodyPreview"`
}
