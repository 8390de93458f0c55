package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
)

// ErrForwarderQueueFull is returned when an event is dropped for lack of buffer.
var ErrForwarderQueueFull = errors.New("event forwarder queue full")

var errForwarderStopped = errors.New("event forwarder stopped")

// Sink receives forwarded events.
type Sink interface {
	Handle(ctx context.Context, event events.Event) error
	Close() error
}

// EventForwarder moves events off the request path: handlers enqueue and a
// single goroutine writes to the sink in publish order.
type EventForwarder struct {
	sink         Sink
	logger       *zap.Logger
	writeTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
	queue   chan events.Event
	done    chan struct{}
}

// StartEventForwarder subscribes to every ticket event and starts the writer goroutine.
func StartEventForwarder(dispatcher events.Dispatcher, sink Sink, buffer int, logger *zap.Logger) *EventForwarder {
	if buffer <= 0 {
		buffer = 256
	}
	f := &EventForwarder{
		sink:         sink,
		logger:       logger,
		writeTimeout: 10 * time.Second,
		queue:        make(chan events.Event, buffer),
		done:         make(chan struct{}),
	}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, f.enqueue)
	}
	go f.run()
	return f
}

func (f *EventForwarder) enqueue(_ context.Context, event events.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.stopped {
		return errForwarderStopped
	}
	select {
	case f.queue <- event:
		return nil
	default:
		return ErrForwarderQueueFull
	}
}

func (f *EventForwarder) run() {
	defer close(f.done)
	for event := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.writeTimeout)
		if err := f.sink.Handle(ctx, event); err != nil {
			f.logger.Warn("event forward failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Int64("ticket_id", event.TicketID),
				zap.Error(err))
		}
		cancel()
	}
}

// Stop drains queued events and closes the sink. Events published afterwards
// are rejected.
func (f *EventForwarder) Stop() error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return nil
	}
	f.stopped = true
	close(f.queue)
	f.mu.Unlock()

	<-f.done
	return f.sink.Close()
}
