package port

import (
	"context"
	"time"
)

// CleanupService is service that removes leftovers of interrupted uploads
type CleanupService interface {
	CleanupStaleTempFiles(ctx context.Context, dir string, olderThan time.Time) (int, error)
}
