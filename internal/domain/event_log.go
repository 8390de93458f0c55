package domain

import "time"

// LogType identifies what an event log entry records. Values match the seeded
// log_types rows.
type LogType int

const (
	LogTypeCreated LogType = 1
	LogTypeUpdated LogType = 2
	LogTypeReplied LogType = 3
)

// EventLogEntry is an immutable audit trail entry for a ticket.
type EventLogEntry struct {
	ID        int64
	TicketID  int64
	LogType   LogType
	LogTitle  string
	Details   map[string]any
	CreatedAt time.Time
}
