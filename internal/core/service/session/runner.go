package session

import (
	"context"
	"log/slog"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Runner drives sessions one at a time and exposes the running one
type Runner struct {
	factory port.ServerFactory
	sink    port.EventSink
	display port.Display
	cleanup port.CleanupService
	logger  *slog.Logger
	current atomic.Pointer[domain.SessionSnapshot]
}

// NewRunner creates a Runner, cleanup may be nil
func NewRunner(factory port.ServerFactory, sink port.EventSink, display port.Display, cleanup port.CleanupService, logger *slog.Logger) *Runner {
	return &Runner{
		factory: factory,
		sink:    sink,
		display: display,
		cleanup: cleanup,
		logger:  logger,
	}
}

// Run starts a server for cfg and blocks until a transfer completed or ctx is
// cancelled. The server is always stopped before Run returns.
func (r *Runner) Run(ctx context.Context, cfg domain.SessionConfig) (domain.SessionState, error) {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	cfg = cfg.WithDefaults()
	logger := r.logger.With("session", cfg.ID.String(), "mode", cfg.Mode)

	if cfg.Mode == domain.ModeGet && r.cleanup != nil {
		dir := cfg.WorkingDir
		if dir == "" {
			dir = "."
		}
		n, err := r.cleanup.CleanupStaleTempFiles(ctx, dir, time.Now().Add(-cfg.SocketTimeout))
		if err != nil {
			logger.Warn("stale upload cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("removed stale uploads", "count", n)
		}
	}

	lc := NewLifecycle(r.sink, logger)
	srv := r.factory.NewServer(cfg, lc)
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start server", "error", err)
		return domain.SessionStateFailed, err
	}

	started := time.Now()
	url := srv.URL()
	r.current.Store(&domain.SessionSnapshot{
		ID:        cfg.ID,
		Mode:      cfg.Mode,
		URL:       url,
		State:     domain.SessionStateRunning,
		StartedAt: started,
	})
	defer r.current.Store(nil)

	r.sink.Publish(ctx, domain.NewEvent(domain.EventSessionStarted, cfg))
	r.display.ShowURL(url)

	var state domain.SessionState
	select {
	case <-lc.Done():
		state = domain.SessionStateCompleted
	case <-ctx.Done():
		state = domain.SessionStateCancelled
	}
	srv.Stop()

	ev := domain.NewEvent(domain.EventSessionStopped, cfg)
	ev.State = state
	ev.Duration = time.Since(started)
	if state == domain.SessionStateCompleted {
		done := lc.Event()
		ev.File, ev.Bytes, ev.Remote = done.File, done.Bytes, done.Remote
	}
	r.sink.Publish(context.WithoutCancel(ctx), ev)
	return state, nil
}

// Current returns the running session, if any
func (r *Runner) Current() (domain.SessionSnapshot, bool) {
	snap := r.current.Load()
	if snap == nil {
		return domain.SessionSnapshot{}, false
	}
	return *snap, true
}
