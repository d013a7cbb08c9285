package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"simplefilehost/internal/core/domain"
	"strings"

	"github.com/google/uuid"
)

const usage = `Commands:
  send <file>       serve a file for download
  senddir <dir>     zip a directory and serve the archive
  get [output]      receive one uploaded file, optionally saved as output
  zip <target>      zip a file or directory into the current directory
  help              show this help
  exit              quit
Press Ctrl-C during a transfer to cancel it.
`

// Exec runs one command. quit reports whether the shell should stop.
func (s *Shell) Exec(ctx context.Context, args []string, out io.Writer, interrupts <-chan struct{}) (quit bool, err error) {
	switch cmd, rest := strings.ToLower(args[0]), args[1:]; cmd {
	case "send":
		if len(rest) != 1 {
			return false, fmt.Errorf("%w: usage: send <file>", domain.ErrInvalidArgument)
		}
		return false, s.send(ctx, rest[0], out, interrupts)
	case "senddir":
		if len(rest) != 1 {
			return false, fmt.Errorf("%w: usage: senddir <dir>", domain.ErrInvalidArgument)
		}
		return false, s.sendDir(ctx, rest[0], out, interrupts)
	case "get":
		if len(rest) > 1 {
			return false, fmt.Errorf("%w: usage: get [output]", domain.ErrInvalidArgument)
		}
		output := ""
		if len(rest) == 1 {
			output = rest[0]
		}
		return false, s.get(ctx, output, out, interrupts)
	case "zip":
		if len(rest) != 1 {
			return false, fmt.Errorf("%w: usage: zip <target>", domain.ErrInvalidArgument)
		}
		dst, err := s.zip(rest[0])
		if err != nil {
			return false, err
		}
		fmt.Fprintf(out, "Created %s\n", dst)
		return false, nil
	case "help", "?":
		fmt.Fprint(out, usage)
		return false, nil
	case "exit", "quit":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s (try 'help')", domain.ErrUnknownCommand, cmd)
	}
}

func (s *Shell) send(ctx context.Context, target string, out io.Writer, interrupts <-chan struct{}) error {
	path := s.abs(target)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidArgument, target)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	f.Close()

	cfg, err := s.session(domain.ModeSend, path, filepath.Dir(path))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Sending %s. Open this URL on the receiving device:\n", filepath.Base(path))
	return s.runSession(ctx, cfg, out, interrupts)
}

func (s *Shell) sendDir(ctx context.Context, target string, out io.Writer, interrupts <-chan struct{}) error {
	info, err := os.Stat(s.abs(target))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidArgument, target)
	}

	archive, err := s.zip(target)
	if err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(archive); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove archive", "path", archive, "error", err)
		}
	}()
	return s.send(ctx, archive, out, interrupts)
}

func (s *Shell) get(ctx context.Context, output string, out io.Writer, interrupts <-chan struct{}) error {
	cfg, err := s.session(domain.ModeGet, output, s.workDir)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Waiting for an upload. Open this URL on the sending device:")
	return s.runSession(ctx, cfg, out, interrupts)
}

// zip archives target into the working directory and returns the archive path
func (s *Shell) zip(target string) (string, error) {
	src := s.abs(target)
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	dst := filepath.Join(s.workDir, filepath.Base(filepath.Clean(src))+".zip")
	if info.IsDir() {
		err = s.archiver.ZipDir(src, dst)
	} else {
		err = s.archiver.ZipFile(src, dst)
	}
	if err != nil {
		return "", fmt.Errorf("zip %s: %w", target, err)
	}
	return dst, nil
}

func (s *Shell) session(mode domain.Mode, path, dir string) (domain.SessionConfig, error) {
	tok, err := s.tokens.Token(tokenLength)
	if err != nil {
		return domain.SessionConfig{}, fmt.Errorf("generate token: %w", err)
	}
	return domain.SessionConfig{
		ID:            uuid.New(),
		Mode:          mode,
		Token:         tok,
		Path:          path,
		BindAddress:   s.defaults.BindAddress,
		Port:          s.defaults.Port,
		MaxSize:       s.defaults.MaxSize,
		WorkingDir:    dir,
		SocketTimeout: s.defaults.SocketTimeout,
		PollInterval:  s.defaults.PollInterval,
		PublicAccess:  s.defaults.PublicAccess,
		TLS:           s.defaults.TLS,
	}, nil
}

func (s *Shell) runSession(ctx context.Context, cfg domain.SessionConfig, out io.Writer, interrupts <-chan struct{}) error {
	drain(interrupts)
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-interrupts:
			cancel()
		case <-sctx.Done():
		}
	}()

	fmt.Fprintln(out, "Press Ctrl-C to cancel.")
	state, err := s.runner.Run(sctx, cfg)
	if err != nil {
		return err
	}
	switch state {
	case domain.SessionStateCompleted:
		fmt.Fprintln(out, "Transfer complete.")
	case domain.SessionStateCancelled:
		fmt.Fprintln(out, "Cancelled by user.")
	}
	return nil
}

func (s *Shell) abs(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.workDir, p)
}

// drain drops interrupts received while no session was running
func drain(interrupts <-chan struct{}) {
	for {
		select {
		case <-interrupts:
		default:
			return
		}
	}
}
