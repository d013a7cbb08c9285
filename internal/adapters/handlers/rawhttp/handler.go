package rawhttp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"simplefilehost/internal/core/service/transfer"
	"time"
)

const (
	htmlType  = "text/html; charset=utf-8"
	plainType = "text/plain; charset=utf-8"
)

// Handler serves one request per connection for a single session
type Handler struct {
	cfg    domain.SessionConfig
	engine *transfer.Engine
	mime   port.MimeResolver
	signal port.CompletionSignal
	sink   port.EventSink
	logger *slog.Logger
}

// NewHandler creates a Handler
func NewHandler(cfg domain.SessionConfig, engine *transfer.Engine, mime port.MimeResolver, signal port.CompletionSignal, sink port.EventSink, logger *slog.Logger) *Handler {
	return &Handler{
		cfg:    cfg,
		engine: engine,
		mime:   mime,
		signal: signal,
		sink:   sink,
		logger: logger,
	}
}

// Handle reads one request from conn, answers it and closes conn
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	logger := h.logger.With("remote", conn.RemoteAddr().String())

	req, err := ReadRequest(ctx, conn, h.cfg.SocketTimeout, h.cfg.PollInterval)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedRequest) {
			h.respond(ctx, conn, logger, http.StatusBadRequest, plainType, []byte("400 Bad Request"))
		}
		logger.Warn("failed to read request", "error", err)
		return
	}
	logger.Info("request", "method", req.Method, "path", req.Path)

	if cl := req.ContentLength(); h.cfg.MaxSize > 0 && cl > h.cfg.MaxSize {
		logger.Warn("declared body exceeds size limit", "content_length", cl, "max_size", h.cfg.MaxSize)
		h.respond(ctx, conn, logger, http.StatusRequestEntityTooLarge, plainType, []byte("413 Payload Too Large"))
		return
	}

	switch req.Method {
	case http.MethodGet:
		h.handleGet(ctx, conn, req, logger)
	case http.MethodPost:
		h.handlePost(ctx, conn, req, logger)
	default:
		h.respond(ctx, conn, logger, http.StatusNotImplemented, plainType, []byte("501 Not Implemented"))
	}
}

func (h *Handler) handleGet(ctx context.Context, conn net.Conn, req *Request, logger *slog.Logger) {
	root := "/" + h.cfg.Token

	switch {
	case req.Path == root && h.cfg.Mode == domain.ModeSend:
		name := filepath.Base(h.cfg.Path)
		h.respond(ctx, conn, logger, http.StatusOK, htmlType, downloadPage(h.cfg.Token, name, h.previewable()))

	case req.Path == root && h.cfg.Mode == domain.ModeGet:
		h.respond(ctx, conn, logger, http.StatusOK, htmlType, uploadPage(h.cfg.Token))

	case req.Path == root+"/file" && h.cfg.Mode == domain.ModeSend:
		h.sendFile(ctx, conn, req, logger, transfer.FileResponse{
			Path:        h.cfg.Path,
			ContentType: "application/octet-stream",
			Filename:    filepath.Base(h.cfg.Path),
			Attachment:  true,
		}, true)

	case req.Path == root+"/raw" && h.cfg.Mode == domain.ModeSend:
		if !h.previewable() {
			h.respond(ctx, conn, logger, http.StatusNotFound, plainType, []byte("Preview not available for this file"))
			return
		}
		h.sendFile(ctx, conn, req, logger, transfer.FileResponse{
			Path:        h.cfg.Path,
			ContentType: plainType,
		}, false)

	default:
		h.respond(ctx, conn, logger, http.StatusNotFound, plainType, []byte("404 Not Found"))
	}
}

// previewable reports whether the served file is small textual content
func (h *Handler) previewable() bool {
	info, err := os.Stat(h.cfg.Path)
	if err != nil || !info.Mode().IsRegular() || info.Size() > domain.PreviewMaxSize {
		return false
	}
	return h.mime.IsText(h.mime.TypeByFilename(h.cfg.Path))
}

// sendFile streams a file response; completes is set for the route that ends the session
func (h *Handler) sendFile(ctx context.Context, conn net.Conn, req *Request, logger *slog.Logger, resp transfer.FileResponse, completes bool) {
	if _, err := os.Stat(resp.Path); err != nil {
		logger.Warn("file to send is unavailable", "path", resp.Path, "error", err)
		h.respond(ctx, conn, logger, http.StatusNotFound, plainType, []byte("404 File Not Found"))
		return
	}

	res, err := h.engine.SendFile(ctx, conn, resp)
	if err != nil {
		logger.Warn("file transfer failed", "path", resp.Path, "sent", res.Bytes, "error", err)
		h.publishFailure(ctx, conn, req, resp.Path, res.Bytes, err)
		if !res.HeaderSent {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrNotFound) {
				status = http.StatusNotFound
			}
			h.respond(ctx, conn, logger, status, plainType, []byte(http.StatusText(status)))
		}
		return
	}

	logger.Info("file sent", "path", resp.Path, "bytes", res.Bytes, "duration", res.Duration)
	if !completes {
		return
	}
	ev := h.event(domain.EventTransferCompleted, conn, req, resp.Path, res.Bytes, res.Duration)
	h.signal.Complete(ctx, ev)
}

func (h *Handler) handlePost(ctx context.Context, conn net.Conn, req *Request, logger *slog.Logger) {
	if h.cfg.Mode != domain.ModeGet {
		h.respond(ctx, conn, logger, http.StatusMethodNotAllowed, plainType, []byte("405 Method Not Allowed"))
		return
	}
	if req.Path != "/"+h.cfg.Token {
		h.respond(ctx, conn, logger, http.StatusNotFound, plainType, []byte("404 Not Found"))
		return
	}

	length := req.ContentLength()
	if length < 0 {
		h.respond(ctx, conn, logger, http.StatusLengthRequired, plainType, []byte("411 Length Required"))
		return
	}
	boundary, err := Boundary(req)
	if err != nil {
		logger.Warn("upload without multipart boundary")
		h.respond(ctx, conn, logger, http.StatusBadRequest, plainType, []byte("400 Missing multipart boundary"))
		return
	}

	res, err := h.engine.Receive(ctx, conn, transfer.ReceiveRequest{
		ContentLength: length,
		Boundary:      boundary,
		Prefix:        req.Body,
		Dest:          h.cfg.Path,
		Dir:           h.cfg.WorkingDir,
		MaxSize:       h.cfg.MaxSize,
	})
	if err != nil {
		logger.Warn("upload failed", "received", res.Received, "error", err)
		h.publishFailure(ctx, conn, req, h.cfg.Path, res.Received, err)

		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSizeExceeded) {
			status = http.StatusRequestEntityTooLarge
		}
		h.respond(ctx, conn, logger, status, htmlType, resultPage(false, "Upload failed!", http.StatusText(status)))
		return
	}

	logger.Info("file received", "path", res.Path, "bytes", res.Bytes, "duration", res.Duration)
	h.respond(ctx, conn, logger, http.StatusOK, htmlType, resultPage(true, "Upload successful!", "Saved as "+filepath.Base(res.Path)))

	ev := h.event(domain.EventTransferCompleted, conn, req, res.Path, res.Bytes, res.Duration)
	h.signal.Complete(ctx, ev)
}

func (h *Handler) respond(ctx context.Context, conn net.Conn, logger *slog.Logger, status int, contentType string, body []byte) {
	if err := h.engine.WriteAll(ctx, conn, transfer.StatusResponse(status, contentType, body)); err != nil {
		logger.Debug("failed to write response", "status", status, "error", err)
	}
}

func (h *Handler) event(t domain.EventType, conn net.Conn, req *Request, file string, n int64, d time.Duration) domain.Event {
	ev := domain.NewEvent(t, h.cfg)
	ev.Remote = conn.RemoteAddr().String()
	ev.Route = routeName(req.Path, h.cfg.Token)
	ev.File = file
	ev.Bytes = n
	ev.Duration = d
	return ev
}

func (h *Handler) publishFailure(ctx context.Context, conn net.Conn, req *Request, file string, n int64, err error) {
	ev := h.event(domain.EventTransferFailed, conn, req, file, n, 0)
	ev.Error = err.Error()
	h.sink.Publish(ctx, ev)
}

// routeName strips the token so events never carry it
func routeName(path, token string) string {
	root := "/" + token
	switch path {
	case root:
		return "/"
	case root + "/file":
		return "/file"
	case root + "/raw":
		return "/raw"
	default:
		return "other"
	}
}
