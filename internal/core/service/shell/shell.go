package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"time"
)

const (
	prompt      = "sfh> "
	tokenLength = 24
)

// Defaults are the session parameters shared by every command
type Defaults struct {
	BindAddress   string
	Port          int
	MaxSize       int64
	SocketTimeout time.Duration
	PollInterval  time.Duration
	PublicAccess  bool
	TLS           domain.TLSConfig
}

// Shell runs transfer commands, interactively or one at a time
type Shell struct {
	runner   port.SessionRunner
	archiver port.Archiver
	tokens   port.TokenGenerator
	defaults Defaults
	workDir  string
	logger   *slog.Logger
}

// NewShell creates a Shell resolving relative paths against workDir
func NewShell(runner port.SessionRunner, archiver port.Archiver, tokens port.TokenGenerator, defaults Defaults, workDir string, logger *slog.Logger) *Shell {
	return &Shell{
		runner:   runner,
		archiver: archiver,
		tokens:   tokens,
		defaults: defaults,
		workDir:  workDir,
		logger:   logger,
	}
}

// Run reads commands from in until exit, end of input or ctx cancellation.
// A value on interrupts cancels the running session only.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer, interrupts <-chan struct{}) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	fmt.Fprintln(out, "SimpleFileHost. Type 'help' for commands.")
	for {
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			args, err := SplitArgs(line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if len(args) == 0 {
				continue
			}
			quit, err := s.Exec(ctx, args, out, interrupts)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}
