package rawhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/service/transfer"
	"strconv"
	"strings"
	"time"
)

// MaxHeaderBytes bounds the request header block
const MaxHeaderBytes = 64 << 10

var headerEnd = []byte("\r\n\r\n")

// Request is a parsed request line plus its raw header block
type Request struct {
	Method  string
	Path    string
	Version string
	header  []string
	// Body holds the bytes that arrived after the header block in the same reads
	Body []byte
}

// HeaderValue returns the trimmed value of the first header named name
func (r *Request) HeaderValue(name string) (string, bool) {
	for _, line := range r.header {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// ContentLength returns the declared body length or -1 when absent or invalid
func (r *Request) ContentLength() int64 {
	v, ok := r.HeaderValue("Content-Length")
	if !ok {
		return -1
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// ReadRequest reads until the end of the header block. The whole read shares
// one absolute timeout; each blocking read lasts at most one poll interval so
// cancellation is observed.
func ReadRequest(ctx context.Context, conn transfer.Conn, timeout, poll time.Duration) (*Request, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, 4096)
	var acc []byte

	for {
		if ctx.Err() != nil {
			return nil, domain.ErrCancelled
		}
		now := time.Now()
		if !now.Before(deadline) {
			return nil, domain.ErrHeaderTimeout
		}
		step := now.Add(poll)
		if step.After(deadline) {
			step = deadline
		}
		_ = conn.SetReadDeadline(step)

		n, err := conn.Read(buf)
		if n > 0 {
			from := len(acc) - len(headerEnd) + 1
			if from < 0 {
				from = 0
			}
			acc = append(acc, buf[:n]...)
			if i := bytes.Index(acc[from:], headerEnd); i >= 0 {
				end := from + i
				return parseRequest(acc[:end], acc[end+len(headerEnd):])
			}
			if len(acc) > MaxHeaderBytes {
				return nil, domain.ErrHeaderTooLarge
			}
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil, domain.ErrPeerClosed
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrPeerClosed, err)
		}
	}
}

func parseRequest(head, rest []byte) (*Request, error) {
	lines := strings.Split(string(head), "\r\n")
	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: request line %q", domain.ErrMalformedRequest, lines[0])
	}

	req := &Request{
		Method: fields[0],
		Path:   fields[1],
		header: lines[1:],
		Body:   append([]byte(nil), rest...),
	}
	if len(fields) > 2 {
		req.Version = fields[2]
	}
	return req, nil
}
