package service_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// MockTicketRepository is a mock implementation of repository.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket, initialReply *domain.Reply) error {
	args := m.Called(ctx, ticket, initialReply)
	return args.Error(0)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket, changes map[string]any, reply *domain.Reply) error {
	args := m.Called(ctx, ticket, changes, reply)
	return args.Error(0)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Ticket), args.Int(1), args.Error(2)
}

// MockReplyRepository is a mock implementation of repository.ReplyRepository
type MockReplyRepository struct {
	mock.Mock
}

func (m *MockReplyRepository) Create(ctx context.Context, reply *domain.Reply) error {
	args := m.Called(ctx, reply)
	return args.Error(0)
}

func (m *MockReplyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Reply, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reply), args.Error(1)
}

// MockEventLogRepository is a mock implementation of repository.EventLogRepository
type MockEventLogRepository struct {
	mock.Mock
}

func (m *MockEventLogRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.EventLogEntry, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EventLogEntry), args.Error(1)
}

// MockLookupRepository is a mock implementation of repository.LookupRepository
type MockLookupRepository struct {
	mock.Mock
}

func (m *MockLookupRepository) List(ctx context.Context, table domain.LookupTable) ([]domain.Lookup, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Lookup), args.Error(1)
}

// recordingDispatcher keeps every published event.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]events.EventType, 0, len(d.events))
	for _, event := range d.events {
		result = append(result, event.Type)
	}
	return result
}
