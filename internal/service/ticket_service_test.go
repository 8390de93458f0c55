package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type ticketFixture struct {
	tickets    *MockTicketRepository
	replies    *MockReplyRepository
	eventLogs  *MockEventLogRepository
	dispatcher *recordingDispatcher
	svc        *service.TicketService
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:    new(MockTicketRepository),
		replies:    new(MockReplyRepository),
		eventLogs:  new(MockEventLogRepository),
		dispatcher: &recordingDispatcher{},
	}
	f.svc = service.NewTicketService(service.TicketDependencies{
		TicketRepo:   f.tickets,
		ReplyRepo:    f.replies,
		EventLogRepo: f.eventLogs,
		Dispatcher:   f.dispatcher,
		Pagination:   config.PaginationConfig{DefaultPageSize: 10, MaxPageSize: 100},
		Tickets:      config.TicketsConfig{DefaultEnvironmentID: 1},
		Clock:        func() time.Time { return fixedNow },
	})
	return f
}

func storedTicket(id int64) *domain.Ticket {
	return &domain.Ticket{
		ID:                     id,
		Title:                  "Login fails",
		ApplicationName:        "HR",
		Description:            "Cannot log in",
		PriorityID:             2,
		StatusID:               1,
		TicketTypeID:           1,
		InstalledEnvironmentID: 1,
		Date:                   fixedNow.Add(-time.Hour),
		LastModified:           fixedNow.Add(-time.Hour),
		Version:                1,
		Priority:               domain.Lookup{ID: 2, Title: "Medium"},
		Status:                 domain.Lookup{ID: 1, Title: "Open"},
		TicketType:             domain.Lookup{ID: 1, Title: "Bug"},
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestPage(t *testing.T) {
	svc := newTicketFixture().svc

	cases := []struct {
		name          string
		number, size  int
		limit, offset int
	}{
		{"defaults", 0, 0, 10, 0},
		{"negative values", -3, -1, 10, 0},
		{"second page", 2, 10, 10, 10},
		{"third page of twenty", 3, 20, 20, 40},
		{"clamped size", 2, 500, 100, 100},
		{"page number past any offset", math.MaxInt, 10, 10, math.MaxInt32},
		{"largest page that fits", math.MaxInt32/10 + 1, 10, 10, math.MaxInt32 / 10 * 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := svc.Page(tc.number, tc.size)
			assert.Equal(t, tc.limit, limit)
			assert.Equal(t, tc.offset, offset)
		})
	}
}

func TestListTickets(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	page := []domain.Ticket{*storedTicket(12), *storedTicket(11)}
	f.tickets.On("List", ctx, domain.TicketFilter{}, 2, 2).Return(page, 12, nil)

	result, err := f.svc.ListTickets(ctx, 2, 2, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 12, result.TotalCount)
	assert.Len(t, result.Tickets, 2)
	f.tickets.AssertExpectations(t)
}

func TestListTicketsRejectsBadFilter(t *testing.T) {
	f := newTicketFixture()

	_, err := f.svc.ListTickets(context.Background(), 1, 10, domain.TicketFilter{StatusID: intPtr(0)})
	require.Error(t, err)
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))
	f.tickets.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	replies := []domain.Reply{
		{ID: 1, TicketID: 5, Body: "first", ReplyDate: fixedNow.Add(-time.Minute)},
		{ID: 2, TicketID: 5, Body: "second", ReplyDate: fixedNow},
	}
	f.tickets.On("GetByID", ctx, int64(5)).Return(storedTicket(5), nil)
	f.replies.On("ListByTicket", ctx, int64(5)).Return(replies, nil)

	ticket, err := f.svc.GetTicket(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, replies, ticket.Replies)

	f.tickets.On("GetByID", ctx, int64(404)).Return(nil, pgx.ErrNoRows)
	_, err = f.svc.GetTicket(ctx, 404)
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))

	_, err = f.svc.GetTicket(ctx, 0)
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))
}

func TestCreateTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("Create", ctx, mock.AnythingOfType("*domain.Ticket"), mock.AnythingOfType("*domain.Reply")).
		Run(func(args mock.Arguments) {
			ticket := args.Get(1).(*domain.Ticket)
			reply := args.Get(2).(*domain.Reply)
			ticket.ID = 42
			ticket.Version = 1
			reply.ID = 7
			reply.TicketID = ticket.ID
			ticket.Replies = []domain.Reply{*reply}
		}).
		Return(nil)

	ticket, err := f.svc.CreateTicket(ctx, service.TicketCreateInput{
		Title:           "  Login fails ",
		ApplicationName: "HR",
		Description:     "Cannot log in",
		PriorityID:      2,
		StatusID:        1,
		TicketTypeID:    1,
		Reply:           "Seen on Monday",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.ID)
	assert.Equal(t, "Login fails", ticket.Title)
	assert.Equal(t, 1, ticket.InstalledEnvironmentID)
	assert.Equal(t, fixedNow, ticket.Date)
	assert.Equal(t, fixedNow, ticket.LastModified)
	require.Len(t, ticket.Replies, 1)
	assert.Equal(t, "Seen on Monday", ticket.Replies[0].Body)
	assert.Equal(t, fixedNow, ticket.Replies[0].ReplyDate)
	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketReplyAdded}, f.dispatcher.types())
}

func TestCreateTicketWithoutReply(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("Create", ctx, mock.AnythingOfType("*domain.Ticket"), (*domain.Reply)(nil)).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Ticket).ID = 1 }).
		Return(nil)

	ticket, err := f.svc.CreateTicket(ctx, service.TicketCreateInput{
		Title:           "Login fails",
		ApplicationName: "HR",
		Description:     "Cannot log in",
		PriorityID:      2,
		StatusID:        1,
		TicketTypeID:    1,
		Reply:           "   ",
	})
	require.NoError(t, err)
	assert.Empty(t, ticket.Replies)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.types())
	f.tickets.AssertExpectations(t)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture()

	_, err := f.svc.CreateTicket(context.Background(), service.TicketCreateInput{
		Title:        " ",
		PriorityID:   2,
		StatusID:     0,
		TicketTypeID: -1,
	})
	require.Error(t, err)

	domainErr := errorutil.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Details, "title")
	assert.Contains(t, domainErr.Details, "applicationName")
	assert.Contains(t, domainErr.Details, "description")
	assert.Contains(t, domainErr.Details, "statusId")
	assert.Contains(t, domainErr.Details, "ticketTypeId")
	assert.NotContains(t, domainErr.Details, "priorityId")
	f.tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTicketUnknownLookup(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("Create", ctx, mock.Anything, mock.Anything).
		Return(errors.Join(repository.ErrInvalidReference, errors.New("tickets_priority_id_fkey")))

	_, err := f.svc.CreateTicket(ctx, service.TicketCreateInput{
		Title:           "Login fails",
		ApplicationName: "HR",
		Description:     "Cannot log in",
		PriorityID:      99,
		StatusID:        1,
		TicketTypeID:    1,
	})
	assert.True(t, errorutil.IsCode(err, "VALIDATION_FAILED"))
	assert.Empty(t, f.dispatcher.types())
}

func TestUpdateTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(5)).Return(storedTicket(5), nil)
	f.tickets.On("Update", ctx, mock.AnythingOfType("*domain.Ticket"), mock.Anything, mock.AnythingOfType("*domain.Reply")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Ticket).Version = 2
			args.Get(3).(*domain.Reply).ID = 3
		}).
		Return(nil)

	ticket, err := f.svc.UpdateTicket(ctx, 5, domain.TicketPatch{
		PriorityID: intPtr(3),
		Reply:      strPtr("Escalated"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, ticket.PriorityID)
	assert.Equal(t, "HR", ticket.ApplicationName)
	assert.Equal(t, 1, ticket.StatusID)
	assert.Equal(t, fixedNow, ticket.LastModified)
	assert.Equal(t, 2, ticket.Version)

	call := f.tickets.Calls[len(f.tickets.Calls)-1]
	changes := call.Arguments.Get(2).(map[string]any)
	assert.Equal(t, map[string]any{"priorityId": map[string]any{"old": 2, "new": 3}}, changes)
	reply := call.Arguments.Get(3).(*domain.Reply)
	assert.Equal(t, "Escalated", reply.Body)
	assert.Equal(t, fixedNow, reply.ReplyDate)

	assert.Equal(t, []events.EventType{events.EventTicketUpdated, events.EventTicketReplyAdded}, f.dispatcher.types())
}

func TestUpdateTicketWithoutChanges(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(5)).Return(storedTicket(5), nil)

	ticket, err := f.svc.UpdateTicket(ctx, 5, domain.TicketPatch{
		PriorityID: intPtr(2),
		Reply:      strPtr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ticket.Version)
	assert.Equal(t, fixedNow.Add(-time.Hour), ticket.LastModified)
	f.tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.dispatcher.types())
}

func TestUpdateTicketValidation(t *testing.T) {
	f := newTicketFixture()

	_, err := f.svc.UpdateTicket(context.Background(), 5, domain.TicketPatch{
		ApplicationName: strPtr("  "),
		PriorityID:      intPtr(0),
	})
	domainErr := errorutil.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Details, "applicationName")
	assert.Contains(t, domainErr.Details, "priorityId")
	f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateTicketNotFound(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("GetByID", ctx, int64(9)).Return(nil, pgx.ErrNoRows)

	_, err := f.svc.UpdateTicket(ctx, 9, domain.TicketPatch{StatusID: intPtr(2)})
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))
}

func TestUpdateTicketLostRace(t *testing.T) {
	cases := []struct {
		name   string
		exists bool
		code   string
	}{
		{"deleted concurrently", false, "NOT_FOUND"},
		{"modified concurrently", true, "CONFLICT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTicketFixture()
			ctx := context.Background()

			f.tickets.On("GetByID", ctx, int64(5)).Return(storedTicket(5), nil)
			f.tickets.On("Update", ctx, mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrConflict)
			f.tickets.On("Exists", ctx, int64(5)).Return(tc.exists, nil)

			_, err := f.svc.UpdateTicket(ctx, 5, domain.TicketPatch{StatusID: intPtr(2)})
			assert.True(t, errorutil.IsCode(err, tc.code))
			assert.Empty(t, f.dispatcher.types())
			f.tickets.AssertExpectations(t)
		})
	}
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	f.tickets.On("Delete", ctx, int64(5)).Return(nil).Once()
	f.tickets.On("Delete", ctx, int64(5)).Return(pgx.ErrNoRows)

	require.NoError(t, f.svc.DeleteTicket(ctx, 5))
	assert.True(t, errorutil.IsCode(f.svc.DeleteTicket(ctx, 5), "NOT_FOUND"))
	assert.Equal(t, []events.EventType{events.EventTicketDeleted}, f.dispatcher.types())
}

func TestListTicketEvents(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	entries := []domain.EventLogEntry{{ID: 1, TicketID: 5, LogType: domain.LogTypeCreated, LogTitle: "Created"}}
	f.tickets.On("Exists", ctx, int64(5)).Return(true, nil)
	f.tickets.On("Exists", ctx, int64(6)).Return(false, nil)
	f.eventLogs.On("ListByTicket", ctx, int64(5)).Return(entries, nil)

	result, err := f.svc.ListTicketEvents(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, entries, result)

	_, err = f.svc.ListTicketEvents(ctx, 6)
	assert.True(t, errorutil.IsCode(err, "NOT_FOUND"))
	f.eventLogs.AssertNumberOfCalls(t, "ListByTicket", 1)
}
