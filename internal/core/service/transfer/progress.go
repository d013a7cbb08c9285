package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const progressReportEvery = 2 * time.Second

// progress throttles transfer logging: a line at 100%, every two seconds,
// or whenever a new multiple of ten percent is reached.
type progress struct {
	logger      *slog.Logger
	label       string
	total       int64
	done        int64
	lastReport  time.Time
	lastPercent int
	enabled     bool
}

func newProgress(logger *slog.Logger, label string, total int64) *progress {
	return &progress{
		logger:      logger,
		label:       label,
		total:       total,
		lastReport:  time.Now(),
		lastPercent: -1,
		enabled:     logger.Enabled(context.Background(), slog.LevelDebug),
	}
}

func (p *progress) add(n int64) {
	p.done += n
	if !p.enabled {
		return
	}

	now := time.Now()
	percent := percentage(p.done, p.total)
	switch {
	case percent >= 100:
	case now.Sub(p.lastReport) >= progressReportEvery:
	case percent/10 > p.lastPercent/10:
	default:
		return
	}

	p.logger.Debug(p.label+" progress",
		"percent", percent,
		"done", FormatSize(p.done),
		"total", FormatSize(p.total),
	)
	p.lastReport = now
	p.lastPercent = percent
}

func percentage(current, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(current * 100 / total)
}

// FormatSize renders a byte count with binary units
func FormatSize(n int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}
