package cleanup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"simplefilehost/internal/core/service/transfer"
	"time"
)

// CleanupStaleTempFiles removes in-flight upload files of dir last modified
// before olderThan. Only names produced by transfer.TempName are considered.
func (c *cleanupService) CleanupStaleTempFiles(ctx context.Context, dir string, olderThan time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}

	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !entry.Type().IsRegular() || !transfer.IsTempName(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return removed, err
		}
		if !info.ModTime().Before(olderThan) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Error("Failed to remove stale upload", "path", path, "err", err)
			continue
		}
		c.logger.Debug("removed stale upload", "path", path)
		removed++
	}
	return removed, nil
}
