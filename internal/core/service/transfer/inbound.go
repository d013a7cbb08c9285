package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"simplefilehost/internal/core/domain"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	tempMarker       = ".tmp."
	uploadNamePrefix = "upload_"
	uploadTokenLen   = 8
)

// ReceiveRequest describes an inbound multipart upload
type ReceiveRequest struct {
	ContentLength int64
	Boundary      string
	// Prefix holds body bytes already read together with the request header
	Prefix []byte
	// Dest is the destination path; empty derives a name from the upload
	Dest string
	// Dir resolves relative destinations and derived names
	Dir     string
	MaxSize int64
}

// ReceiveResult summarises a stored upload
type ReceiveResult struct {
	Path string
	// Bytes is the size of the stored payload
	Bytes int64
	// Received counts body bytes consumed from the connection
	Received int64
	// Complete is false when the body ended before the closing delimiter
	Complete bool
	Duration time.Duration
}

// TempName returns the name used while an upload to base is in flight
func TempName(base string) string {
	return base + tempMarker + uuid.NewString()
}

// IsTempName reports whether name was produced by TempName
func IsTempName(name string) bool {
	i := strings.LastIndex(name, tempMarker)
	if i < 0 {
		return false
	}
	_, err := uuid.Parse(name[i+len(tempMarker):])
	return err == nil
}

// Receive consumes exactly ContentLength body bytes, extracting the first
// part's payload into a temporary file that is renamed into place only when
// the body was fully read. On failure the temporary file is removed.
func (e *Engine) Receive(ctx context.Context, conn Conn, req ReceiveRequest) (ReceiveResult, error) {
	start := time.Now()
	var res ReceiveResult

	dir := req.Dir
	if dir == "" {
		dir = "."
	}
	dest := req.Dest
	if dest != "" && !filepath.IsAbs(dest) {
		dest = filepath.Join(dir, dest)
	}
	tmpDir, tmpBase := dir, "upload"
	if dest != "" {
		tmpDir, tmpBase = filepath.Dir(dest), filepath.Base(dest)
	}

	tmpPath := filepath.Join(tmpDir, TempName(tmpBase))
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	committed := false
	closed := false
	defer func() {
		if committed {
			return
		}
		if !closed {
			_ = f.Close()
		}
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn("failed to remove temporary upload", "path", tmpPath, "error", err)
		}
	}()

	part := NewPartWriter(req.Boundary, f)
	prog := newProgress(e.logger, "receive", req.ContentLength)
	wd := e.newWatchdog()

	consume := func(p []byte) error {
		res.Received += int64(len(p))
		if req.MaxSize > 0 && res.Received > req.MaxSize {
			return fmt.Errorf("%w: more than %s received", domain.ErrSizeExceeded, FormatSize(req.MaxSize))
		}
		if _, err := part.Write(p); err != nil {
			return err
		}
		prog.add(int64(len(p)))
		return nil
	}

	prefix := req.Prefix
	if int64(len(prefix)) > req.ContentLength {
		prefix = prefix[:req.ContentLength]
	}
	if len(prefix) > 0 {
		if err := consume(prefix); err != nil {
			return res, err
		}
	}

	buf := make([]byte, receiveBufferSize)
	wd.startOp()
	for res.Received < req.ContentLength {
		if err := wd.check(ctx); err != nil {
			return res, err
		}
		_ = conn.SetReadDeadline(time.Now().Add(e.opts.PollInterval))

		want := buf
		if rest := req.ContentLength - res.Received; rest < int64(len(want)) {
			want = want[:rest]
		}
		n, err := conn.Read(want)
		if n > 0 {
			wd.progressed()
			if cerr := consume(want[:n]); cerr != nil {
				return res, cerr
			}
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				if res.Received >= req.ContentLength {
					break
				}
				return res, fmt.Errorf("%w: got %d of %d body bytes", domain.ErrPeerClosed, res.Received, req.ContentLength)
			}
			return res, fmt.Errorf("%w: %v", domain.ErrPeerClosed, err)
		}
	}

	res.Complete = part.Complete()
	res.Bytes = part.Written()
	if !res.Complete {
		e.logger.Warn("upload body ended before the closing boundary, keeping received data",
			"phase", part.phase.String(),
			"stored", res.Bytes,
		)
	}

	closed = true
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}

	final := dest
	if final == "" {
		final = e.uploadPath(dir, part.Filename())
	}
	if err := os.Rename(tmpPath, final); err != nil {
		return res, fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	committed = true

	res.Path = final
	res.Duration = time.Since(start)
	e.logger.Debug("upload stored", "path", final, "size", FormatSize(res.Bytes))
	return res, nil
}

// uploadPath keeps the client's file name unless that would overwrite an
// existing file, in which case a random upload_ name is used.
func (e *Engine) uploadPath(dir, clientName string) string {
	if clientName != "" {
		p := filepath.Join(dir, clientName)
		if _, err := os.Lstat(p); errors.Is(err, os.ErrNotExist) {
			return p
		}
	}

	suffix := ""
	if e.tokens != nil {
		if tok, err := e.tokens.Token(uploadTokenLen); err == nil {
			suffix = tok
		}
	}
	if suffix == "" {
		suffix = strings.ReplaceAll(uuid.NewString(), "-", "")[:uploadTokenLen]
	}
	return filepath.Join(dir, uploadNamePrefix+suffix)
}
