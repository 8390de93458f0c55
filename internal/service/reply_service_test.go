package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newReplyService(tickets *MockTicketRepository, replies *MockReplyRepository, dispatcher events.Dispatcher) *service.ReplyService {
	return service.NewReplyService(service.ReplyDependencies{
		TicketRepo: tickets,
		ReplyRepo:  replies,
		Dispatcher: dispatcher,
		Clock:      func() time.Time { return fixedNow },
	})
}

func TestAddReply(t *testing.T) {
	tickets := new(MockTicketRepository)
	replies := new(MockReplyRepository)
	dispatcher := &recordingDispatcher{}
	svc := newReplyService(tickets, replies, dispatcher)
	ctx := context.Background()

	tickets.On("Exists", ctx, int64(5)).Return(true, nil)
	replies.On("Create", ctx, mock.AnythingOfType("*domain.Reply")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Reply).ID = 11 }).
		Return(nil)

	reply, err := svc.AddReply(ctx, 5, " Restarted the service ")
	require.NoError(t, err)
	assert.Equal(t, int64(11), reply.ID)
	assert.Equal(t, int64(5), reply.TicketID)
	assert.Equal(t, "Restarted the service", reply.Body)
	assert.Equal(t, fixedNow, reply.ReplyDate)

	require.Len(t, dispatcher.events, 1)
	payload := dispatcher.events[0].Payload.(events.TicketReplyAddedPayload)
	assert.Equal(t, int64(11), payload.ReplyID)
}

func TestAddReplyValidation(t *testing.T) {
	tickets := new(MockTicketRepository)
	replies := new(MockReplyRepository)
	svc := newReplyService(tickets, replies, nil)

	_, err := svc.AddReply(context.Background(), 0, "hello")
	domainErr := errorutil.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, "invalid ticket id", domainErr.Message)

	_, err = svc.AddReply(context.Background(), 5, "   ")
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))

	tickets.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestAddReplyMissingTicket(t *testing.T) {
	tickets := new(MockTicketRepository)
	replies := new(MockReplyRepository)
	svc := newReplyService(tickets, replies, nil)
	ctx := context.Background()

	tickets.On("Exists", ctx, int64(404)).Return(false, nil)
	_, err := svc.AddReply(ctx, 404, "hello")
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))
	replies.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	tickets.On("Exists", ctx, int64(7)).Return(true, nil)
	replies.On("Create", ctx, mock.Anything).
		Return(fmt.Errorf("%w: ticket_replies_ticket_id_fkey", repository.ErrInvalidReference))
	_, err = svc.AddReply(ctx, 7, "hello")
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))
}

func TestAddReplyLongBodyPreview(t *testing.T) {
	tickets := new(MockTicketRepository)
	replies := new(MockReplyRepository)
	dispatcher := &recordingDispatcher{}
	svc := newReplyService(tickets, replies, dispatcher)
	ctx := context.Background()

	tickets.On("Exists", ctx, int64(5)).Return(true, nil)
	replies.On("Create", ctx, mock.Anything).Return(nil)

	_, err := svc.AddReply(ctx, 5, strings.Repeat("ä", 300))
	require.NoError(t, err)

	payload := dispatcher.events[0].Payload.(events.TicketReplyAddedPayload)
	assert.Equal(t, 120, len([]rune(payload.BodyPreview)))
	assert.True(t, strings.HasSuffix(payload.BodyPreview, "..."))
}

func TestLookupService(t *testing.T) {
	lookups := new(MockLookupRepository)
	svc := service.NewLookupService(lookups)
	ctx := context.Background()

	priorities := []domain.Lookup{{ID: 1, Title: "Low"}, {ID: 2, Title: "Medium"}}
	lookups.On("List", ctx, domain.LookupPriorities).Return(priorities, nil)
	lookups.On("List", ctx, domain.LookupTicketTypes).Return([]domain.Lookup{{ID: 1, Title: "Bug"}}, nil)
	lookups.On("List", ctx, domain.LookupStatuses).Return([]domain.Lookup{{ID: 1, Title: "Open"}}, nil)
	lookups.On("List", ctx, domain.LookupInstalledEnvironments).Return([]domain.Lookup{{ID: 1, Title: "Production"}}, nil)

	got, err := svc.ListPriorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, priorities, got)

	_, err = svc.ListTicketTypes(ctx)
	require.NoError(t, err)
	_, err = svc.ListStatuses(ctx)
	require.NoError(t, err)
	_, err = svc.ListInstalledEnvironments(ctx)
	require.NoError(t, err)
	lookups.AssertExpectations(t)
}
