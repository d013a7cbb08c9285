package session

import (
	"log/slog"
	"simplefilehost/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 session routes
type HandlerV1 struct {
	status port.SessionStatus
	logger *slog.Logger
}

// NewSessionHandlerV1 creates HandlerV1
func NewSessionHandlerV1(status port.SessionStatus, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		status: status,
		logger: logger,
	}
}

// Routes exposes routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.GetSessionV1)

	return router
}
