package session

import (
	"context"
	"log/slog"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"sync"
)

// Lifecycle is the completion signal of one session. The first Complete
// closes Done; later calls are ignored.
type Lifecycle struct {
	once   sync.Once
	done   chan struct{}
	event  domain.Event
	sink   port.EventSink
	logger *slog.Logger
}

func NewLifecycle(sink port.EventSink, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		done:   make(chan struct{}),
		sink:   sink,
		logger: logger,
	}
}

// Complete records ev as the session outcome and reports whether it was the first
func (l *Lifecycle) Complete(ctx context.Context, ev domain.Event) bool {
	fired := false
	l.once.Do(func() {
		fired = true
		l.event = ev
		l.sink.Publish(ctx, ev)
		close(l.done)
	})
	if !fired {
		l.logger.Debug("session already completed, ignoring", "remote", ev.Remote, "route", ev.Route)
	}
	return fired
}

// Done is closed once the session completed
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// Event returns the completing event, valid after Done is closed
func (l *Lifecycle) Event() domain.Event {
	<-l.done
	return l.event
}
