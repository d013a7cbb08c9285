package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"simplefilehost/internal/core/domain"
	"strconv"
	"time"
)

// FileResponse describes a file streamed back as an HTTP 200 response
type FileResponse struct {
	Path        string
	ContentType string
	// Filename is announced through Content-Disposition when set
	Filename   string
	Attachment bool
}

// SendResult summarises an outbound transfer
type SendResult struct {
	Bytes int64
	// HeaderSent is true once any response byte reached the client
	HeaderSent bool
	Duration   time.Duration
}

// SendFile writes the response header then streams the file body. Bytes on
// the wire always equal the declared Content-Length or the call fails.
func (e *Engine) SendFile(ctx context.Context, conn Conn, resp FileResponse) (SendResult, error) {
	start := time.Now()
	var res SendResult

	f, err := os.Open(resp.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", domain.ErrNotFound, resp.Path)
		}
		return res, fmt.Errorf("open %s: %w", resp.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", resp.Path, err)
	}
	if !info.Mode().IsRegular() {
		return res, fmt.Errorf("%w: %s is not a regular file", domain.ErrNotFound, resp.Path)
	}
	size := info.Size()

	wd := e.newWatchdog()
	n, err := e.writeAll(ctx, conn, fileHeader(resp, size), wd, nil)
	res.HeaderSent = n > 0
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}

	e.logger.Debug("sending file", "path", resp.Path, "size", FormatSize(size))
	prog := newProgress(e.logger, "send", size)

	var sent int64
	if rf, ok := conn.(io.ReaderFrom); ok && !e.opts.DisableZeroCopy {
		sent, err = e.sendZeroCopy(ctx, conn, rf, f, size, wd, prog)
	} else {
		sent, err = e.sendBuffered(ctx, conn, f, size, wd, prog)
	}
	res.Bytes = sent
	res.Duration = time.Since(start)
	return res, err
}

// sendZeroCopy hands the file to the connection's ReadFrom, which uses
// sendfile on TCP sockets. The file offset advances by what was sent so a
// timed out attempt resumes where it stopped.
func (e *Engine) sendZeroCopy(ctx context.Context, conn Conn, rf io.ReaderFrom, f *os.File, size int64, wd *watchdog, prog *progress) (int64, error) {
	var sent int64
	wd.startOp()
	for sent < size {
		if err := wd.check(ctx); err != nil {
			return sent, err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(e.opts.PollInterval))

		n, err := rf.ReadFrom(&io.LimitedReader{R: f, N: size - sent})
		if n > 0 {
			sent += n
			wd.progressed()
			prog.add(n)
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return sent, fmt.Errorf("%w: %v", domain.ErrPeerClosed, err)
		}
		if n == 0 && sent < size {
			// nothing left to read although the header promised more
			return sent, fmt.Errorf("%w: sent %d of %d bytes", domain.ErrShortFile, sent, size)
		}
	}
	return sent, nil
}

func (e *Engine) sendBuffered(ctx context.Context, conn Conn, f *os.File, size int64, wd *watchdog, prog *progress) (int64, error) {
	bufSize := int64(sendBufferSize)
	if size < bufSize {
		bufSize = size
	}
	buf := make([]byte, bufSize)

	var sent int64
	for sent < size {
		if err := wd.check(ctx); err != nil {
			return sent, err
		}
		want := buf
		if rest := size - sent; rest < int64(len(want)) {
			want = want[:rest]
		}
		n, err := io.ReadFull(f, want)
		if n == 0 {
			if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return sent, fmt.Errorf("%w: sent %d of %d bytes", domain.ErrShortFile, sent, size)
			}
			return sent, fmt.Errorf("read file: %w", err)
		}

		w, werr := e.writeAll(ctx, conn, want[:n], wd, prog)
		sent += int64(w)
		if werr != nil {
			return sent, werr
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return sent, fmt.Errorf("read file: %w", err)
		}
	}
	return sent, nil
}

func fileHeader(resp FileResponse, size int64) []byte {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make([]byte, 0, 256)
	h = append(h, "HTTP/1.1 200 OK\r\n"...)
	h = append(h, "Content-Type: "+contentType+"\r\n"...)
	h = append(h, "Content-Length: "+strconv.FormatInt(size, 10)+"\r\n"...)
	if resp.Filename != "" {
		disposition := "inline"
		if resp.Attachment {
			disposition = "attachment"
		}
		h = append(h, "Content-Disposition: "+mime.FormatMediaType(disposition, map[string]string{"filename": resp.Filename})+"\r\n"...)
	}
	h = append(h, "Connection: close\r\n\r\n"...)
	return h
}

// StatusResponse renders a complete Connection: close response
func StatusResponse(status int, contentType string, body []byte) []byte {
	h := make([]byte, 0, 128+len(body))
	h = append(h, "HTTP/1.1 "+strconv.Itoa(status)+" "+http.StatusText(status)+"\r\n"...)
	if contentType != "" {
		h = append(h, "Content-Type: "+contentType+"\r\n"...)
	}
	h = append(h, "Content-Length: "+strconv.Itoa(len(body))+"\r\n"...)
	h = append(h, "Connection: close\r\n\r\n"...)
	return append(h, body...)
}
