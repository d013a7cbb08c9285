package rawhttp_test

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"simplefilehost/internal/adapters/eventsink"
	"simplefilehost/internal/adapters/handlers/rawhttp"
	"simplefilehost/internal/adapters/mimetype"
	"simplefilehost/internal/adapters/token"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/service/session"
	"simplefilehost/internal/core/service/transfer"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tok = "Zq81LmX0aBcD"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	handler   *rawhttp.Handler
	lifecycle *session.Lifecycle
	sink      *eventsink.MockSink
	cfg       domain.SessionConfig
}

func newFixture(t *testing.T, cfg domain.SessionConfig) *fixture {
	t.Helper()
	cfg.ID = uuid.New()
	cfg.Token = tok
	cfg.SocketTimeout = 2 * time.Second
	cfg.PollInterval = 10 * time.Millisecond
	if cfg.WorkingDir == "" {
		cfg.WorkingDir = t.TempDir()
	}

	sink := eventsink.NewMockSink()
	sink.On("Publish", mock.Anything, mock.Anything).Return()
	lc := session.NewLifecycle(sink, discard)
	engine := transfer.NewEngine(transfer.OptionsFor(cfg), token.NewGenerator(), discard)
	h := rawhttp.NewHandler(cfg, engine, mimetype.NewResolver(), lc, sink, discard)
	return &fixture{handler: h, lifecycle: lc, sink: sink, cfg: cfg}
}

// roundTrip sends raw on a fresh connection and returns everything the handler wrote
func (f *fixture) roundTrip(t *testing.T, raw []byte) []byte {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { client.Close() })

	done := make(chan struct{})
	go func() {
		f.handler.Handle(context.Background(), server)
		close(done)
	}()
	go func() { _, _ = client.Write(raw) }()

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	<-done
	return out
}

func (f *fixture) completed() bool {
	select {
	case <-f.lifecycle.Done():
		return true
	default:
		return false
	}
}

func parse(t *testing.T, raw []byte) (*http.Response, string) {
	t.Helper()
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "close", resp.Header.Get("Connection"))
	return resp, string(body)
}

func sendFixture(t *testing.T, name string, data []byte) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return newFixture(t, domain.SessionConfig{Mode: domain.ModeSend, Path: path})
}

func get(path string) []byte {
	return []byte("GET " + path + " HTTP/1.1\r\nHost: localhost\r\n\r\n")
}

func upload(boundary, filename string, payload []byte) []byte {
	var body bytes.Buffer
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString(`Content-Disposition: form-data; name="file"; filename="` + filename + `"` + "\r\n")
	body.WriteString("Content-Type: application/octet-stream\r\n\r\n")
	body.Write(payload)
	body.WriteString("\r\n--" + boundary + "--\r\n")

	var req bytes.Buffer
	req.WriteString("POST /" + tok + " HTTP/1.1\r\nHost: localhost\r\n")
	req.WriteString("Content-Type: multipart/form-data; boundary=" + boundary + "\r\n")
	req.WriteString(fmt.Sprintf("Content-Length: %d\r\n\r\n", body.Len()))
	req.Write(body.Bytes())
	return req.Bytes()
}

func TestHandler_Send_DownloadFile(t *testing.T) {
	// Arrange
	f := sendFixture(t, "hello.txt", []byte("hello"))

	// Act
	resp, body := parse(t, f.roundTrip(t, get("/"+tok+"/file")))

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(5), resp.ContentLength)
	assert.Equal(t, "hello", body)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	require.True(t, f.completed())
	assert.Equal(t, int64(5), f.lifecycle.Event().Bytes)
	assert.Equal(t, "/file", f.lifecycle.Event().Route)
}

func TestHandler_Send_LandingPage(t *testing.T) {
	f := sendFixture(t, "notes.txt", []byte("text"))

	resp, body := parse(t, f.roundTrip(t, get("/"+tok)))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "notes.txt")
	assert.Contains(t, body, "/"+tok+"/file")
	assert.Contains(t, body, "preview")
	assert.False(t, f.completed())
}

func TestHandler_Send_LandingPageWithoutPreview(t *testing.T) {
	f := sendFixture(t, "image.png", []byte{0x89, 'P', 'N', 'G'})

	_, body := parse(t, f.roundTrip(t, get("/"+tok)))

	assert.NotContains(t, body, "<script>")
}

func TestHandler_Send_RawPreview(t *testing.T) {
	f := sendFixture(t, "notes.txt", []byte("line one\nline two\n"))

	resp, body := parse(t, f.roundTrip(t, get("/"+tok+"/raw")))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "line one\nline two\n", body)
	assert.False(t, f.completed())
}

func TestHandler_Send_RawPreviewRejected(t *testing.T) {
	tests := map[string][]byte{
		"data.bin":  []byte("binary"),
		"large.txt": bytes.Repeat([]byte("a"), domain.PreviewMaxSize+1),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			f := sendFixture(t, name, data)

			resp, body := parse(t, f.roundTrip(t, get("/"+tok+"/raw")))

			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, "Preview not available for this file", body)
		})
	}
}

func TestHandler_Send_FileVanished(t *testing.T) {
	f := sendFixture(t, "gone.txt", []byte("x"))
	require.NoError(t, os.Remove(f.cfg.Path))

	resp, _ := parse(t, f.roundTrip(t, get("/"+tok+"/file")))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, f.completed())
}

func TestHandler_Routing(t *testing.T) {
	tests := map[string]struct {
		mode   domain.Mode
		raw    []byte
		status int
	}{
		"wrong token":         {mode: domain.ModeSend, raw: get("/nottoken/file"), status: http.StatusNotFound},
		"token prefix":        {mode: domain.ModeSend, raw: get("/" + tok + "x"), status: http.StatusNotFound},
		"file route in get":   {mode: domain.ModeGet, raw: get("/" + tok + "/file"), status: http.StatusNotFound},
		"post in send":        {mode: domain.ModeSend, raw: []byte("POST /" + tok + " HTTP/1.1\r\nContent-Length: 0\r\n\r\n"), status: http.StatusMethodNotAllowed},
		"put":                 {mode: domain.ModeGet, raw: []byte("PUT /" + tok + " HTTP/1.1\r\n\r\n"), status: http.StatusNotImplemented},
		"delete":              {mode: domain.ModeSend, raw: []byte("DELETE /" + tok + " HTTP/1.1\r\n\r\n"), status: http.StatusNotImplemented},
		"post missing length": {mode: domain.ModeGet, raw: []byte("POST /" + tok + " HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=x\r\n\r\n"), status: http.StatusLengthRequired},
		"post no boundary":    {mode: domain.ModeGet, raw: []byte("POST /" + tok + " HTTP/1.1\r\nContent-Type: text/plain\r\nContent-Length: 4\r\n\r\nabcd"), status: http.StatusBadRequest},
		"post wrong token":    {mode: domain.ModeGet, raw: []byte("POST /other HTTP/1.1\r\nContent-Length: 4\r\n\r\nabcd"), status: http.StatusNotFound},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// Arrange
			path := filepath.Join(t.TempDir(), "file.txt")
			require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))
			cfg := domain.SessionConfig{Mode: tc.mode}
			if tc.mode == domain.ModeSend {
				cfg.Path = path
			}
			f := newFixture(t, cfg)

			// Act
			resp, _ := parse(t, f.roundTrip(t, tc.raw))

			// Assert
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.False(t, f.completed())
		})
	}
}

func TestHandler_Get_UploadPage(t *testing.T) {
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet})

	resp, body := parse(t, f.roundTrip(t, get("/"+tok)))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `enctype="multipart/form-data"`)
	assert.Contains(t, body, `action="/`+tok+`"`)
}

func TestHandler_Get_Upload(t *testing.T) {
	// Arrange
	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet, MaxSize: 1 << 20})

	// Act
	resp, body := parse(t, f.roundTrip(t, upload("----XyZ", "bytes.bin", payload)))

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Upload successful!")
	stored, err := os.ReadFile(filepath.Join(f.cfg.WorkingDir, "bytes.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
	require.True(t, f.completed())
	assert.Equal(t, int64(256), f.lifecycle.Event().Bytes)

	entries, err := os.ReadDir(f.cfg.WorkingDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandler_Get_UploadToExplicitPath(t *testing.T) {
	dir := t.TempDir()
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet, Path: "received.dat", WorkingDir: dir})

	resp, _ := parse(t, f.roundTrip(t, upload("b0undary", "client-name.dat", []byte("data"))))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	stored, err := os.ReadFile(filepath.Join(dir, "received.dat"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(stored))
}

func TestHandler_Get_DeclaredTooLarge(t *testing.T) {
	// Arrange
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet, MaxSize: 1 << 20})
	raw := "POST /" + tok + " HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=abc\r\nContent-Length: 2097152\r\n\r\n"

	// Act
	resp, body := parse(t, f.roundTrip(t, []byte(raw)))

	// Assert
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "413 Payload Too Large", body)
	entries, err := os.ReadDir(f.cfg.WorkingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, f.completed())
}

func TestHandler_Get_UploadFailureCleansUp(t *testing.T) {
	// Arrange
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet})
	server, client := net.Pipe()
	defer client.Close()
	done := make(chan struct{})
	go func() {
		f.handler.Handle(context.Background(), server)
		close(done)
	}()
	full := upload("abc", "a.bin", make([]byte, 4096))

	// Act
	_, err := client.Write(full[:len(full)/2])
	require.NoError(t, err)
	client.Close()
	<-done

	// Assert
	entries, err := os.ReadDir(f.cfg.WorkingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.False(t, f.completed())
	failed := f.sink.OfType(domain.EventTransferFailed)
	require.Len(t, failed, 1)
	assert.NotContains(t, failed[0].Route, tok)
}

func TestHandler_SecondTransferDoesNotCompleteAgain(t *testing.T) {
	f := sendFixture(t, "hello.txt", []byte("hello"))

	parse(t, f.roundTrip(t, get("/"+tok+"/file")))
	resp, body := parse(t, f.roundTrip(t, get("/"+tok+"/file")))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", body)
	assert.Len(t, f.sink.OfType(domain.EventTransferCompleted), 1)
}

func TestHandler_OversizedHeaderDropsConnection(t *testing.T) {
	f := newFixture(t, domain.SessionConfig{Mode: domain.ModeGet})
	raw := "GET /" + tok + " HTTP/1.1\r\nX-Fill: " + strings.Repeat("z", rawhttp.MaxHeaderBytes+1)

	out := f.roundTrip(t, []byte(raw))

	assert.Empty(t, out)
}
