package cleanup

import (
	"log/slog"
	"simplefilehost/internal/core/port"
)

type cleanupService struct {
	logger *slog.Logger
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		logger: logger,
	}
}
