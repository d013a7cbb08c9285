package transfer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"simplefilehost/internal/core/domain"
	"strings"
)

// MaxPartHeaderSize bounds how much unmatched part header data is buffered
const MaxPartHeaderSize = 16 << 10

type phase int

const (
	phaseFindBoundary phase = iota
	phaseInHeaders
	phaseInFileData
	phaseComplete
)

func (p phase) String() string {
	switch p {
	case phaseFindBoundary:
		return "find-boundary"
	case phaseInHeaders:
		return "in-headers"
	case phaseInFileData:
		return "in-file-data"
	default:
		return "complete"
	}
}

var headerSeparator = []byte("\r\n\r\n")

// PartWriter extracts the payload of the first part of a multipart body.
// Bytes are written to it as they arrive from the network, split anywhere;
// the payload is forwarded to dst without the delimiters around it.
type PartWriter struct {
	dst       io.Writer
	phase     phase
	buf       []byte
	delim     []byte
	dataDelim []byte
	header    []byte
	written   int64
	maxHeader int
}

// NewPartWriter creates a PartWriter for boundary
func NewPartWriter(boundary string, dst io.Writer) *PartWriter {
	delim := []byte("--" + boundary)
	return &PartWriter{
		dst:       dst,
		delim:     delim,
		dataDelim: append([]byte("\r\n"), delim...),
		maxHeader: MaxPartHeaderSize,
	}
}

// Write implements io.Writer
func (w *PartWriter) Write(p []byte) (int, error) {
	if w.phase == phaseComplete {
		return len(p), nil
	}
	w.buf = append(w.buf, p...)
	if err := w.drain(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Complete reports whether the closing delimiter of the part was seen
func (w *PartWriter) Complete() bool {
	return w.phase == phaseComplete
}

// Written returns the number of payload bytes forwarded to dst
func (w *PartWriter) Written() int64 {
	return w.written
}

// Header returns the raw header block of the part
func (w *PartWriter) Header() []byte {
	return w.header
}

// Filename returns the client supplied file name of the part, base name only
func (w *PartWriter) Filename() string {
	return PartFilename(w.header)
}

func (w *PartWriter) drain() error {
	for {
		switch w.phase {
		case phaseFindBoundary:
			i := bytes.Index(w.buf, w.delim)
			if i < 0 {
				w.keepTail(len(w.delim))
				return nil
			}
			w.consume(i + len(w.delim))
			w.phase = phaseInHeaders

		case phaseInHeaders:
			i := bytes.Index(w.buf, headerSeparator)
			if i < 0 || i > w.maxHeader {
				if len(w.buf) > w.maxHeader {
					return domain.ErrPartHeaderTooLarge
				}
				return nil
			}
			w.header = bytes.TrimLeft(append([]byte(nil), w.buf[:i]...), "\r\n")
			w.consume(i + len(headerSeparator))
			w.phase = phaseInFileData

		case phaseInFileData:
			if i := bytes.Index(w.buf, w.dataDelim); i >= 0 {
				if err := w.emit(w.buf[:i]); err != nil {
					return err
				}
				w.buf = nil
				w.phase = phaseComplete
				return nil
			}
			// the tail may be the start of a delimiter split across reads
			safe := len(w.buf) - (len(w.dataDelim) - 1)
			if safe > 0 {
				if err := w.emit(w.buf[:safe]); err != nil {
					return err
				}
				w.consume(safe)
			}
			return nil

		default:
			return nil
		}
	}
}

func (w *PartWriter) emit(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.dst.Write(p)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return nil
}

func (w *PartWriter) consume(n int) {
	w.buf = append(w.buf[:0], w.buf[n:]...)
}

func (w *PartWriter) keepTail(n int) {
	if len(w.buf) > n {
		w.consume(len(w.buf) - n)
	}
}

// PartFilename extracts the filename parameter of a part's Content-Disposition
func PartFilename(header []byte) string {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Disposition") {
			continue
		}
		_, params, err := mime.ParseMediaType(strings.TrimSpace(value))
		if err != nil {
			return ""
		}
		return sanitizeFilename(params["filename"])
	}
	return ""
}

func sanitizeFilename(name string) string {
	// some clients send a full windows path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return ""
	}
	return name
}
