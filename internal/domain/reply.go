package domain

import "time"

// Reply is an immutable, time-stamped comment on a ticket.
type Reply struct {
	ID        int64
	TicketID  int64
	Body      string
	ReplyDate time.Time
}
