package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ReplyService appends replies to existing tickets.
type ReplyService struct {
	tickets    repository.TicketRepository
	replies    repository.ReplyRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ReplyDependencies bundles repositories for reply service.
type ReplyDependencies struct {
	TicketRepo repository.TicketRepository
	ReplyRepo  repository.ReplyRepository
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewReplyService constructs the service.
func NewReplyService(deps ReplyDependencies) *ReplyService {
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &ReplyService{
		tickets:    deps.TicketRepo,
		replies:    deps.ReplyRepo,
		dispatcher: deps.Dispatcher,
		now:        clock,
	}
}

// AddReply stores a reply dated by the server clock.
func (s *ReplyService) AddReply(ctx context.Context, ticketID int64, body string) (*domain.Reply, error) {
	if ticketID <= 0 {
		return nil, errorutil.NewValidationError("invalid ticket id", map[string]any{"ticketId": "must be a positive id"})
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errorutil.NewValidationError("reply is required", map[string]any{"reply": "is required"})
	}

	exists, err := s.tickets.Exists(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ticketNotFound(ticketID)
	}

	reply := &domain.Reply{
		TicketID:  ticketID,
		Body:      body,
		ReplyDate: s.now(),
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		// the ticket was deleted after the existence check
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, ticketNotFound(ticketID)
		}
		return nil, err
	}

	publishReplyAdded(ctx, s.dispatcher, reply)
	return reply, nil
}
