package transfer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"time"
)

const (
	sendBufferSize    = 1 << 20
	receiveBufferSize = 64 << 10
	tlsWriteChunk     = 16 << 10
)

// Conn is the part of net.Conn the engine drives
type Conn interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// Options tune the engine timeouts
type Options struct {
	// InactivityTimeout fails a transfer when no byte moved for that long
	InactivityTimeout time.Duration
	// OperationTimeout fails a single stalled read or write
	OperationTimeout time.Duration
	PollInterval     time.Duration
	// DisableZeroCopy forces the buffered send loop
	DisableZeroCopy bool
}

// Engine moves file bytes between disk and a client connection
type Engine struct {
	opts   Options
	tokens port.TokenGenerator
	logger *slog.Logger
}

// NewEngine creates an Engine
func NewEngine(opts Options, tokens port.TokenGenerator, logger *slog.Logger) *Engine {
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = domain.DefaultSocketTimeout
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = opts.InactivityTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = domain.DefaultPollInterval
	}
	return &Engine{opts: opts, tokens: tokens, logger: logger}
}

// OptionsFor derives engine options from a session
func OptionsFor(cfg domain.SessionConfig) Options {
	return Options{
		InactivityTimeout: cfg.SocketTimeout,
		OperationTimeout:  cfg.SocketTimeout,
		PollInterval:      cfg.PollInterval,
	}
}

// WriteAll writes p to conn under the engine timeouts
func (e *Engine) WriteAll(ctx context.Context, conn Conn, p []byte) error {
	_, err := e.writeAll(ctx, conn, p, e.newWatchdog(), nil)
	return err
}

func (e *Engine) writeAll(ctx context.Context, conn Conn, p []byte, wd *watchdog, prog *progress) (int, error) {
	// tls.Conn state is corrupt after a write timeout, so writes there use one
	// long deadline per record and cancellation interrupts them instead.
	_, isTLS := conn.(*tls.Conn)
	if isTLS {
		stop := context.AfterFunc(ctx, func() {
			_ = conn.SetWriteDeadline(time.Unix(1, 0))
		})
		defer stop()
	}

	wd.startOp()
	written := 0
	for written < len(p) {
		if err := wd.check(ctx); err != nil {
			return written, err
		}

		chunk := p[written:]
		if isTLS {
			if len(chunk) > tlsWriteChunk {
				chunk = chunk[:tlsWriteChunk]
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wd.remaining()))
			if ctx.Err() != nil {
				return written, domain.ErrCancelled
			}
		} else {
			_ = conn.SetWriteDeadline(time.Now().Add(e.opts.PollInterval))
		}

		n, err := conn.Write(chunk)
		if n > 0 {
			written += n
			wd.progressed()
			if prog != nil {
				prog.add(int64(n))
			}
		}
		if err != nil {
			if isTimeout(err) {
				if isTLS {
					if ctx.Err() != nil {
						return written, domain.ErrCancelled
					}
					return written, domain.ErrInactivityTimeout
				}
				continue
			}
			return written, fmt.Errorf("%w: %v", domain.ErrPeerClosed, err)
		}
		if n == 0 {
			return written, domain.ErrPeerClosed
		}
	}
	return written, nil
}

func (e *Engine) newWatchdog() *watchdog {
	return newWatchdog(e.opts.InactivityTimeout, e.opts.OperationTimeout)
}

// watchdog tracks the inactivity deadline (last delivered byte) and the
// per-operation deadline (start of the current stalled attempt).
type watchdog struct {
	inactivity   time.Duration
	operation    time.Duration
	lastProgress time.Time
	opStart      time.Time
}

func newWatchdog(inactivity, operation time.Duration) *watchdog {
	now := time.Now()
	return &watchdog{
		inactivity:   inactivity,
		operation:    operation,
		lastProgress: now,
		opStart:      now,
	}
}

func (w *watchdog) startOp() {
	w.opStart = time.Now()
}

func (w *watchdog) progressed() {
	now := time.Now()
	w.lastProgress = now
	w.opStart = now
}

func (w *watchdog) remaining() time.Duration {
	left := w.inactivity - time.Since(w.lastProgress)
	if op := w.operation - time.Since(w.opStart); op < left {
		left = op
	}
	if left <= 0 {
		return time.Millisecond
	}
	return left
}

func (w *watchdog) check(ctx context.Context) error {
	if ctx.Err() != nil {
		return domain.ErrCancelled
	}
	now := time.Now()
	if idle := now.Sub(w.lastProgress); idle > w.inactivity {
		return fmt.Errorf("%w: no progress for %s", domain.ErrInactivityTimeout, idle.Truncate(time.Millisecond))
	}
	if stalled := now.Sub(w.opStart); stalled > w.operation {
		return fmt.Errorf("%w: stalled for %s", domain.ErrOperationTimeout, stalled.Truncate(time.Millisecond))
	}
	return nil
}

func isTimeout(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
