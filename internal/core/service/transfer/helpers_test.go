package transfer_test

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"simplefilehost/internal/adapters/token"
	"simplefilehost/internal/core/service/transfer"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const testBoundary = "----WebKitFormBoundary7MA4YWxkTrZu0gW"

func newEngine(opts transfer.Options) *transfer.Engine {
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	if opts.InactivityTimeout == 0 {
		opts.InactivityTimeout = 2 * time.Second
	}
	tokens := token.NewMockGenerator()
	tokens.On("Token", 8).Return("Ab3dE6gH", nil)
	return transfer.NewEngine(opts, tokens, discard)
}

func multipartBody(boundary, filename string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString("--" + boundary + "\r\n")
	b.WriteString(`Content-Disposition: form-data; name="file"; filename="` + filename + `"` + "\r\n")
	b.WriteString("Content-Type: application/octet-stream\r\n\r\n")
	b.Write(payload)
	b.WriteString("\r\n--" + boundary + "--\r\n")
	return b.Bytes()
}

// allBytes returns 0x00..0xFF, which contains CR, LF and '-' in every position
func allBytes() []byte {
	p := make([]byte, 256)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
