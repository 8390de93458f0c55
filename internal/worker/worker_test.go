package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
	fail   bool
	closed bool
}

func (s *recordingSink) Handle(_ context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broker unavailable")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestEventForwarderDeliversInOrder(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	sink := &recordingSink{}
	forwarder := worker.StartEventForwarder(dispatcher, sink, 16, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "1", Type: events.EventTicketCreated, TicketID: 9}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "2", Type: events.EventTicketUpdated, TicketID: 9}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{ID: "3", Type: events.EventTicketDeleted, TicketID: 9}))

	require.NoError(t, forwarder.Stop())
	require.NoError(t, forwarder.Stop())

	require.Len(t, sink.events, 3)
	assert.Equal(t, "1", sink.events[0].ID)
	assert.Equal(t, "3", sink.events[2].ID)
	assert.True(t, sink.closed)

	// publishing after stop is logged by the dispatcher, never a panic
	assert.NotPanics(t, func() {
		_ = dispatcher.Publish(ctx, events.Event{ID: "4", Type: events.EventTicketCreated, TicketID: 9})
	})
	assert.Len(t, sink.events, 3)
}

func TestEventForwarderLogsSinkFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	forwarder := worker.StartEventForwarder(dispatcher, &recordingSink{fail: true}, 4, zap.New(core))

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{ID: "1", Type: events.EventTicketReplyAdded, TicketID: 2}))
	require.NoError(t, forwarder.Stop())

	require.Equal(t, 1, logs.FilterMessage("event forward failed").Len())
}

func TestStartNotificationWorker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	worker.StartNotificationWorker(nil)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, zap.New(core)))

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: 5}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted, TicketID: 5}))

	assert.Equal(t, 1, logs.FilterMessage("TicketCreated").Len())
	assert.Equal(t, 1, logs.FilterMessage("TicketDeleted").Len())
}
