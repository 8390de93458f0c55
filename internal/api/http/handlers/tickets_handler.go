package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketService is the ticket workflow the handler drives.
type TicketService interface {
	ListTickets(ctx context.Context, pageNumber, pageSize int, filter domain.TicketFilter) (*domain.TicketPage, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, input service.TicketCreateInput) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) error
	ListTicketEvents(ctx context.Context, id int64) ([]domain.EventLogEntry, error)
}

// ReplyService appends replies.
type ReplyService interface {
	AddReply(ctx context.Context, ticketID int64, body string) (*domain.Reply, error)
}

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets TicketService
	replies ReplyService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets TicketService, replies ReplyService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, replies: replies}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.ListTickets(c.UserContext(),
		parseInt(c.Query("pageNumber"), 0),
		parseInt(c.Query("pageSize"), 0),
		filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketListResponse(page))
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketDetailResponse(ticket))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Title:           req.Title,
		ApplicationName: req.ApplicationName,
		Description:     req.Description,
		PriorityID:      req.PriorityID,
		StatusID:        req.StatusID,
		TicketTypeID:    req.TicketTypeID,
		Reply:           req.Reply,
	})
	if err != nil {
		return err
	}
	c.Location(fmt.Sprintf("/api/tickets/%d", ticket.ID))
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketDetailResponse(ticket))
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.tickets.UpdateTicket(c.UserContext(), id, req.Patch()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if err := h.tickets.DeleteTicket(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTicketEvents GET /api/tickets/:id/events.
func (h *TicketsHandler) ListTicketEvents(c *fiber.Ctx) error {
	id, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListTicketEvents(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEventLogResponses(entries))
}

// AddReply POST /api/tickets/reply.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reply, err := h.replies.AddReply(c.UserContext(), req.TicketID, req.Reply)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewReplyResponse(*reply))
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseTicketFilter(c *fiber.Ctx) (domain.TicketFilter, error) {
	var filter domain.TicketFilter
	details := map[string]any{}
	for _, field := range []struct {
		name string
		dst  **int
	}{
		{"priorityId", &filter.PriorityID},
		{"statusId", &filter.StatusID},
		{"ticketTypeId", &filter.TicketTypeID},
	} {
		raw := c.Query(field.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			details[field.name] = "must be an integer"
			continue
		}
		*field.dst = &v
	}
	if len(details) > 0 {
		return filter, apperrors.NewValidationError("invalid filter", details)
	}
	return filter, nil
}

// parseInt falls back to def for missing, malformed or non-positive values.
func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
