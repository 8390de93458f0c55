package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title           string `json:"title" validate:"required"`
	ApplicationName string `json:"applicationName" validate:"required"`
	Description     string `json:"description" validate:"required"`
	PriorityID      int    `json:"priorityId" validate:"required,gt=0"`
	StatusID        int    `json:"statusId" validate:"required,gt=0"`
	TicketTypeID    int    `json:"ticketTypeId" validate:"required,gt=0"`
	Reply           string `json:"reply"`
}

// UpdateTicketRequest payload. Omitted or null fields are left unchanged.
type UpdateTicketRequest struct {
	ApplicationName *string `json:"applicationName" validate:"omitnil,min=1"`
	PriorityID      *int    `json:"priorityId" validate:"omitnil,gt=0"`
	StatusID        *int    `json:"statusId" validate:"omitnil,gt=0"`
	TicketTypeID    *int    `json:"ticketTypeId" validate:"omitnil,gt=0"`
	Reply           *string `json:"reply"`
}

// Patch converts the request into a domain patch.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		ApplicationName: r.ApplicationName,
		PriorityID:      r.PriorityID,
		StatusID:        r.StatusID,
		TicketTypeID:    r.TicketTypeID,
		Reply:           r.Reply,
	}
}

// ReplyRequest payload. Any client supplied reply date is ignored.
type ReplyRequest struct {
	TicketID int64  `json:"ticketId"`
	Reply    string `json:"reply"`
}

// LookupResponse is the id/title projection of a reference row.
type LookupResponse struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// ReplyResponse represents a thread reply.
type ReplyResponse struct {
	ReplyID   int64     `json:"replyId"`
	TicketID  int64     `json:"ticketId"`
	Reply     string    `json:"reply"`
	ReplyDate time.Time `json:"replyDate"`
}

// TicketListItem is one row of the ticket grid.
type TicketListItem struct {
	ID              int64          `json:"id"`
	Title           string         `json:"title"`
	ApplicationName string         `json:"applicationName"`
	Date            time.Time      `json:"date"`
	LastModified    time.Time      `json:"lastModified"`
	PriorityIDByID  LookupResponse `json:"priorityIdById"`
	StatusByID      LookupResponse `json:"statusById"`
	TicketTypeByID  LookupResponse `json:"ticketTypeById"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Tickets    []TicketListItem `json:"tickets"`
	TotalCount int              `json:"totalCount"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketListItem
	Description            string          `json:"description"`
	PriorityID             int             `json:"priorityId"`
	StatusID               int             `json:"statusId"`
	TicketTypeID           int             `json:"ticketTypeId"`
	InstalledEnvironmentID int             `json:"installedEnvironmentId"`
	Version                int             `json:"version"`
	TicketReplies          []ReplyResponse `json:"ticketReplies"`
}

// EventLogResponse is one audit trail entry.
type EventLogResponse struct {
	ID        int64          `json:"id"`
	TicketID  int64          `json:"ticketId"`
	LogTypeID int            `json:"logTypeId"`
	LogTitle  string         `json:"logTitle"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"createdAt"`
}

func NewLookupResponse(l domain.Lookup) LookupResponse {
	return LookupResponse{ID: l.ID, Title: l.Title}
}

func NewLookupResponses(items []domain.Lookup) []LookupResponse {
	result := make([]LookupResponse, 0, len(items))
	for _, item := range items {
		result = append(result, NewLookupResponse(item))
	}
	return result
}

func NewReplyResponse(r domain.Reply) ReplyResponse {
	return ReplyResponse{
		ReplyID:   r.ID,
		TicketID:  r.TicketID,
		Reply:     r.Body,
		ReplyDate: r.ReplyDate,
	}
}

func NewTicketListItem(t *domain.Ticket) TicketListItem {
	return TicketListItem{
		ID:              t.ID,
		Title:           t.Title,
		ApplicationName: t.ApplicationName,
		Date:            t.Date,
		LastModified:    t.LastModified,
		PriorityIDByID:  NewLookupResponse(t.Priority),
		StatusByID:      NewLookupResponse(t.Status),
		TicketTypeByID:  NewLookupResponse(t.TicketType),
	}
}

func NewTicketListResponse(page *domain.TicketPage) TicketListResponse {
	items := make([]TicketListItem, 0, len(page.Tickets))
	for i := range page.Tickets {
		items = append(items, NewTicketListItem(&page.Tickets[i]))
	}
	return TicketListResponse{Tickets: items, TotalCount: page.TotalCount}
}

func NewTicketDetailResponse(t *domain.Ticket) TicketDetailResponse {
	replies := make([]ReplyResponse, 0, len(t.Replies))
	for _, r := range t.Replies {
		replies = append(replies, NewReplyResponse(r))
	}
	return TicketDetailResponse{
		TicketListItem:         NewTicketListItem(t),
		Description:            t.Description,
		PriorityID:             t.PriorityID,
		StatusID:               t.StatusID,
		TicketTypeID:           t.TicketTypeID,
		InstalledEnvironmentID: t.InstalledEnvironmentID,
		Version:                t.Version,
		TicketReplies:          replies,
	}
}

func NewEventLogResponses(entries []domain.EventLogEntry) []EventLogResponse {
	result := make([]EventLogResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, EventLogResponse{
			ID:        e.ID,
			TicketID:  e.TicketID,
			LogTypeID: int(e.LogType),
			LogTitle:  e.LogTitle,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}
	return result
}
