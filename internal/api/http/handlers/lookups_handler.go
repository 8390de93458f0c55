package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LookupService reads reference tables.
type LookupService interface {
	ListPriorities(ctx context.Context) ([]domain.Lookup, error)
	ListStatuses(ctx context.Context) ([]domain.Lookup, error)
	ListTicketTypes(ctx context.Context) ([]domain.Lookup, error)
	ListInstalledEnvironments(ctx context.Context) ([]domain.Lookup, error)
}

// LookupsHandler serves the reference tables.
type LookupsHandler struct {
	lookups LookupService
}

func NewLookupsHandler(lookups LookupService) *LookupsHandler {
	return &LookupsHandler{lookups: lookups}
}

// Priorities GET /api/tickets/priorities.
func (h *LookupsHandler) Priorities(c *fiber.Ctx) error {
	return h.respond(c, h.lookups.ListPriorities)
}

// Statuses GET /api/tickets/statuses.
func (h *LookupsHandler) Statuses(c *fiber.Ctx) error {
	return h.respond(c, h.lookups.ListStatuses)
}

// TicketTypes GET /api/tickets/types.
func (h *LookupsHandler) TicketTypes(c *fiber.Ctx) error {
	return h.respond(c, h.lookups.ListTicketTypes)
}

// Environments GET /api/tickets/environments.
func (h *LookupsHandler) Environments(c *fiber.Ctx) error {
	return h.respond(c, h.lookups.ListInstalledEnvironments)
}

func (h *LookupsHandler) respond(c *fiber.Ctx, list func(context.Context) ([]domain.Lookup, error)) error {
	items, err := list(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLookupResponses(items))
}
