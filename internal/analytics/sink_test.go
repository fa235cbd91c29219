package analytics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureSink records delivered events, optionally holding each delivery.
type captureSink struct {
	mu     sync.Mutex
	events []Event
	hold   chan struct{}
}

func (s *captureSink) Deliver(event Event) {
	if s.hold != nil {
		<-s.hold
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcher_DeliversWithIdentity(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, "user-1", 8)

	d.Track("flow_started", map[string]any{"state": "detecting"})
	d.Close()

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, "flow_started", events[0].Name)
	assert.Equal(t, "user-1", events[0].UserID)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, "detecting", events[0].Properties["state"])
}

func TestDispatcher_NeverBlocks(t *testing.T) {
	sink := &captureSink{hold: make(chan struct{})}
	d := NewDispatcher(sink, "", 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Track("burst", nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Track blocked on a full queue")
	}

	close(sink.hold)
	d.Close()
	assert.Positive(t, d.Dropped())
}

func TestDispatcher_CloseDrains(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, "", 16)

	for i := 0; i < 10; i++ {
		d.Track("event", nil)
	}
	d.Close()

	assert.Len(t, sink.all(), 10)

	// Tracking after close is a quiet no-op.
	d.Track("late", nil)
	assert.Len(t, sink.all(), 10)
}
