package domain

import "time"

// Ticket is the aggregate for reported issues.
type Ticket struct {
	ID                     int64
	Title                  string
	ApplicationName        string
	Description            string
	PriorityID             int
	StatusID               int
	TicketTypeID           int
	InstalledEnvironmentID int
	Date                   time.Time
	LastModified           time.Time
	Deleted                bool
	Version                int

	// Populated on reads only.
	Priority   Lookup
	Status     Lookup
	TicketType Lookup
	Replies    []Reply
}

// TicketPatch carries a partial ticket update. A nil field is left untouched.
type TicketPatch struct {
	ApplicationName *string
	PriorityID      *int
	StatusID        *int
	TicketTypeID    *int
	Reply           *string
}

// Apply copies present fields onto the ticket and returns the changed fields
// as old/new pairs keyed by column name.
func (p TicketPatch) Apply(t *Ticket) map[string]any {
	changes := map[string]any{}
	if p.ApplicationName != nil && *p.ApplicationName != t.ApplicationName {
		changes["applicationName"] = map[string]any{"old": t.ApplicationName, "new": *p.ApplicationName}
		t.ApplicationName = *p.ApplicationName
	}
	if p.PriorityID != nil && *p.PriorityID != t.PriorityID {
		changes["priorityId"] = map[string]any{"old": t.PriorityID, "new": *p.PriorityID}
		t.PriorityID = *p.PriorityID
	}
	if p.StatusID != nil && *p.StatusID != t.StatusID {
		changes["statusId"] = map[string]any{"old": t.StatusID, "new": *p.StatusID}
		t.StatusID = *p.StatusID
	}
	if p.TicketTypeID != nil && *p.TicketTypeID != t.TicketTypeID {
		changes["ticketTypeId"] = map[string]any{"old": t.TicketTypeID, "new": *p.TicketTypeID}
		t.TicketTypeID = *p.TicketTypeID
	}
	return changes
}

// TicketFilter narrows a ticket listing to tickets referencing the given lookups.
type TicketFilter struct {
	PriorityID   *int
	StatusID     *int
	TicketTypeID *int
}

// TicketPage is one page of a ticket listing.
type TicketPage struct {
	Tickets    []Ticket
	TotalCount int
}
