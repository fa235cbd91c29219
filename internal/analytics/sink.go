// Package analytics delivers named events to a sink without ever blocking
// the flow that emits them.
package analytics

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one tracked occurrence with a flat property map.
type Event struct {
	At         time.Time
	Properties map[string]any
	ID         string
	Name       string
	UserID     string
}

// Sink receives events from the dispatcher. Delivery is best-effort.
type Sink interface {
	Deliver(event Event)
}

// Dispatcher queues events onto a Sink asynchronously. Track never blocks:
// when the queue is full the event is dropped and counted.
type Dispatcher struct {
	sink    Sink
	queue   chan Event
	done    chan struct{}
	userID  string
	mu      sync.Mutex
	dropped int
	closed  bool
}

// NewDispatcher starts a dispatcher over the given sink.
func NewDispatcher(sink Sink, userID string, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		sink:   sink,
		userID: userID,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Track implements service.Analytics.
func (d *Dispatcher) Track(event string, props map[string]any) {
	e := Event{
		ID:         uuid.NewString(),
		Name:       event,
		UserID:     d.userID,
		Properties: props,
		At:         time.Now(),
	}

	// The lock also orders Track against Close, so we never send on a
	// closed queue.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- e:
	default:
		d.dropped++
		slog.Debug("Analytics queue full, dropping event", "event", event)
	}
}

// Dropped reports how many events were discarded due to backpressure.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close drains the queue and stops the dispatcher.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.sink.Deliver(event)
	}
}

// LogSink writes events to the structured log. Useful as a default when no
// remote sink is configured.
type LogSink struct{}

// Deliver implements Sink.
func (LogSink) Deliver(event Event) {
	slog.Info("analytics event",
		"event", event.Name,
		"event_id", event.ID,
		"user_id", event.UserID,
		"properties", event.Properties)
}

// NoopSink discards all events.
type NoopSink struct{}

// Deliver implements Sink.
func (NoopSink) Deliver(_ Event) {}
