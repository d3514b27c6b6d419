package hub

import (
	"log/slog"
	"sync"
	"testing"

	"chatrelay/metrics"
	"chatrelay/models"
)

// recordingSink keeps every event it accepts.
type recordingSink struct {
	id string

	mu     sync.Mutex
	events []models.Outbound
	closed bool
	refuse bool
}

func newSink(id string) *recordingSink { return &recordingSink{id: id} }

func (s *recordingSink) ID() string { return s.id }

func (s *recordingSink) Send(ev models.Outbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.refuse {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *recordingSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *recordingSink) all() []models.Outbound {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Outbound, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) named(event string) []models.Outbound {
	var out []models.Outbound
	for _, ev := range s.all() {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) messages() []models.Message {
	var out []models.Message
	for _, ev := range s.named(models.EventNewMessage) {
		out = append(out, ev.Data.(models.Message))
	}
	return out
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func newTestHub(t *testing.T, opts ...Option) (*Hub, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	return NewHub(slog.New(slog.DiscardHandler), m, opts...), m
}

// attach registers a fresh recording sink with h.
func attach(h *Hub, id string) *recordingSink {
	s := newSink(id)
	h.Attach(s)
	return s
}
