package port

import (
	"context"
	"simplefilehost/internal/core/domain"
)

// EventSink is an interface to define a session event consumer (log, metrics, nats, ...)
type EventSink interface {
	Publish(ctx context.Context, event domain.Event)
}

// CompletionSignal is fired by handlers when a transfer finished successfully
type CompletionSignal interface {
	Complete(ctx context.Context, event domain.Event) bool
}
