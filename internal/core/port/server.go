package port

import (
	"context"
	"simplefilehost/internal/core/domain"
)

// FileServer is an interface to define a single-session transfer server
type FileServer interface {
	Start(ctx context.Context) error
	Stop()
	URL() string
}

// ServerFactory builds a FileServer for one session
type ServerFactory interface {
	NewServer(cfg domain.SessionConfig, signal CompletionSignal) FileServer
}

// SessionRunner runs one session until completion or cancellation
type SessionRunner interface {
	Run(ctx context.Context, cfg domain.SessionConfig) (domain.SessionState, error)
}

// SessionStatus exposes the currently running session
type SessionStatus interface {
	Current() (domain.SessionSnapshot, bool)
}
