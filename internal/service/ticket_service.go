package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	eventLogs  repository.EventLogRepository
	replies    repository.ReplyRepository
	dispatcher events.Dispatcher
	pagination config.PaginationConfig
	settings   config.TicketsConfig
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ReplyRepo    repository.ReplyRepository
	EventLogRepo repository.EventLogRepository
	Dispatcher   events.Dispatcher
	Pagination   config.PaginationConfig
	Tickets      config.TicketsConfig
	// Clock defaults to the wall clock truncated to the precision postgres stores.
	Clock func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title           string
	ApplicationName string
	Description     string
	PriorityID      int
	StatusID        int
	TicketTypeID    int
	Reply           string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	pagination := deps.Pagination
	if pagination.DefaultPageSize <= 0 {
		pagination.DefaultPageSize = 10
	}
	if pagination.MaxPageSize < pagination.DefaultPageSize {
		pagination.MaxPageSize = pagination.DefaultPageSize
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		eventLogs:  deps.EventLogRepo,
		dispatcher: deps.Dispatcher,
		pagination: pagination,
		settings:   deps.Tickets,
		now:        clock,
	}
}

// maxOffset bounds the offset of pages far beyond any stored row.
const maxOffset = math.MaxInt32

// Page resolves the requested page into limit and offset. Values below one
// fall back to the defaults; page sizes above the maximum are clamped.
func (s *TicketService) Page(pageNumber, pageSize int) (limit, offset int) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = s.pagination.DefaultPageSize
	}
	if pageSize > s.pagination.MaxPageSize {
		pageSize = s.pagination.MaxPageSize
	}
	if pageNumber-1 > maxOffset/pageSize {
		return pageSize, maxOffset
	}
	return pageSize, (pageNumber - 1) * pageSize
}

// ListTickets returns one page of tickets, newest first, with the total count
// of tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, pageNumber, pageSize int, filter domain.TicketFilter) (*domain.TicketPage, error) {
	details := map[string]any{}
	checkOptionalID(details, "priorityId", filter.PriorityID)
	checkOptionalID(details, "statusId", filter.StatusID)
	checkOptionalID(details, "ticketTypeId", filter.TicketTypeID)
	if len(details) > 0 {
		return nil, errorutil.NewValidationError("invalid filter", details)
	}

	limit, offset := s.Page(pageNumber, pageSize)
	tickets, total, err := s.tickets.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	return &domain.TicketPage{Tickets: tickets, TotalCount: total}, nil
}

// GetTicket fetches a ticket with its replies in ascending time order.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	replies, err := s.replies.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Replies = replies
	return ticket, nil
}

// CreateTicket validates and stores a ticket and its optional first reply.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	details := map[string]any{}
	checkRequired(details, "title", input.Title)
	checkRequired(details, "applicationName", input.ApplicationName)
	checkRequired(details, "description", input.Description)
	checkID(details, "priorityId", input.PriorityID)
	checkID(details, "statusId", input.StatusID)
	checkID(details, "ticketTypeId", input.TicketTypeID)
	if len(details) > 0 {
		return nil, errorutil.NewValidationError("invalid ticket", details)
	}

	now := s.now()
	ticket := &domain.Ticket{
		Title:                  strings.TrimSpace(input.Title),
		ApplicationName:        strings.TrimSpace(input.ApplicationName),
		Description:            strings.TrimSpace(input.Description),
		PriorityID:             input.PriorityID,
		StatusID:               input.StatusID,
		TicketTypeID:           input.TicketTypeID,
		InstalledEnvironmentID: s.settings.DefaultEnvironmentID,
		Date:                   now,
		LastModified:           now,
	}

	var reply *domain.Reply
	if body := strings.TrimSpace(input.Reply); body != "" {
		reply = &domain.Reply{Body: body, ReplyDate: now}
	}

	if err := s.tickets.Create(ctx, ticket, reply); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, invalidReference(err)
		}
		return nil, err
	}
	if ticket.Replies == nil {
		ticket.Replies = []domain.Reply{}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Title:           ticket.Title,
			ApplicationName: ticket.ApplicationName,
			PriorityID:      ticket.PriorityID,
			StatusID:        ticket.StatusID,
			TicketTypeID:    ticket.TicketTypeID,
		},
	})
	if reply != nil {
		s.publishReplyAdded(ctx, reply)
	}
	return ticket, nil
}

// UpdateTicket applies the present patch fields. The write is conditioned on
// the version that was read; a lost race reports NotFound when the ticket is
// gone and Conflict otherwise.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	details := map[string]any{}
	if patch.ApplicationName != nil {
		checkRequired(details, "applicationName", *patch.ApplicationName)
		trimmed := strings.TrimSpace(*patch.ApplicationName)
		patch.ApplicationName = &trimmed
	}
	checkOptionalID(details, "priorityId", patch.PriorityID)
	checkOptionalID(details, "statusId", patch.StatusID)
	checkOptionalID(details, "ticketTypeId", patch.TicketTypeID)
	if len(details) > 0 {
		return nil, errorutil.NewValidationError("invalid ticket update", details)
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := patch.Apply(ticket)
	now := s.now()

	var reply *domain.Reply
	if patch.Reply != nil {
		if body := strings.TrimSpace(*patch.Reply); body != "" {
			reply = &domain.Reply{Body: body, ReplyDate: now}
		}
	}
	if len(changes) == 0 && reply == nil {
		return ticket, nil
	}
	ticket.LastModified = now

	if err := s.tickets.Update(ctx, ticket, changes, reply); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			exists, existsErr := s.tickets.Exists(ctx, id)
			if existsErr != nil {
				return nil, existsErr
			}
			if !exists {
				return nil, ticketNotFound(id)
			}
			return nil, errorutil.NewConflict("ticket was modified by another request", map[string]any{"id": id})
		case errors.Is(err, repository.ErrInvalidReference):
			return nil, invalidReference(err)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Payload: events.TicketUpdatedPayload{
			Changes: changes,
			Version: ticket.Version,
		},
	})
	if reply != nil {
		s.publishReplyAdded(ctx, reply)
	}
	return ticket, nil
}

// DeleteTicket removes a ticket together with its replies and event log.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64) error {
	if id <= 0 {
		return ticketNotFound(id)
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticketNotFound(id)
		}
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
	})
	return nil
}

// ListTicketEvents returns the audit trail of a ticket, oldest first.
func (s *TicketService) ListTicketEvents(ctx context.Context, id int64) ([]domain.EventLogEntry, error) {
	if id <= 0 {
		return nil, ticketNotFound(id)
	}
	exists, err := s.tickets.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ticketNotFound(id)
	}
	return s.eventLogs.ListByTicket(ctx, id)
}

func (s *TicketService) getTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	if id <= 0 {
		return nil, ticketNotFound(id)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ticketNotFound(id)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publishReplyAdded(ctx context.Context, reply *domain.Reply) {
	publishReplyAdded(ctx, s.dispatcher, reply)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}

func publishReplyAdded(ctx context.Context, dispatcher events.Dispatcher, reply *domain.Reply) {
	publishEvent(ctx, dispatcher, events.Event{
		Type:     events.EventTicketReplyAdded,
		TicketID: reply.TicketID,
		Payload: events.TicketReplyAddedPayload{
			ReplyID:     reply.ID,
			BodyPreview: stringPreview(reply.Body, 120),
		},
	})
}

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func ticketNotFound(id int64) error {
	return errorutil.NewNotFound("ticket", map[string]any{"id": id})
}

func invalidReference(err error) error {
	return errorutil.NewValidationError("referenced lookup does not exist", map[string]any{"reference": err.Error()})
}

func checkRequired(details map[string]any, field, value string) {
	if strings.TrimSpace(value) == "" {
		details[field] = "is required"
	}
}

func checkID(details map[string]any, field string, value int) {
	if value <= 0 {
		details[field] = "must be a positive id"
	}
}

func checkOptionalID(details map[string]any, field string, value *int) {
	if value != nil {
		checkID(details, field, *value)
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
