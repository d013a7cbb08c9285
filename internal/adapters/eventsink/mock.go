package eventsink

import (
	"context"
	"simplefilehost/internal/core/domain"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
	mu     sync.Mutex
	events []domain.Event
}

func NewMockSink() *MockSink {
	return &MockSink{}
}

func (m *MockSink) Publish(ctx context.Context, ev domain.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	m.Called(ctx, ev)
}

// Events returns a copy of everything published so far
func (m *MockSink) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Event(nil), m.events...)
}

// OfType returns the published events of type t
func (m *MockSink) OfType(t domain.EventType) []domain.Event {
	var out []domain.Event
	for _, ev := range m.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
