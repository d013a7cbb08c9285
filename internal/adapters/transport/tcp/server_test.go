package tcp_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"simplefilehost/internal/adapters/eventsink"
	"simplefilehost/internal/adapters/mimetype"
	"simplefilehost/internal/adapters/token"
	"simplefilehost/internal/adapters/transport/tcp"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/service/session"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type blockingHandler struct {
	started chan struct{}
}

func (h *blockingHandler) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	close(h.started)
	buf := make([]byte, 1)
	// returns when Stop force closes the connection
	_, _ = conn.Read(buf)
}

func newSink() *eventsink.MockSink {
	sink := eventsink.NewMockSink()
	sink.On("Publish", mock.Anything, mock.Anything).Return()
	return sink
}

func sendConfig(t *testing.T, content string) domain.SessionConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return domain.SessionConfig{
		ID:            uuid.New(),
		Mode:          domain.ModeSend,
		Token:         "t0k3n",
		Path:          path,
		BindAddress:   domain.LoopbackAddress,
		SocketTimeout: 2 * time.Second,
		PollInterval:  10 * time.Millisecond,
	}
}

func startSession(t *testing.T, cfg domain.SessionConfig, sink *eventsink.MockSink) (*session.Lifecycle, string, func()) {
	t.Helper()
	lc := session.NewLifecycle(sink, discard)
	factory := tcp.NewFactory(mimetype.NewResolver(), token.NewGenerator(), sink, discard)
	srv := factory.NewServer(cfg, lc)
	require.NoError(t, srv.Start(context.Background()))
	return lc, srv.URL(), srv.Stop
}

func TestServer_SendSessionOverLoopback(t *testing.T) {
	// Arrange
	sink := newSink()
	lc, url, stop := startSession(t, sendConfig(t, "hello"), sink)
	defer stop()

	// Act
	resp, err := http.Get(url + "/file")

	// Assert
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"))
	assert.False(t, strings.HasSuffix(url, ":0/t0k3n"))

	select {
	case <-lc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not complete")
	}
	assert.NotEmpty(t, sink.OfType(domain.EventClientConnected))
}

func TestServer_TLS(t *testing.T) {
	// Arrange
	cfg := sendConfig(t, "secret")
	cfg.TLS.CertFile, cfg.TLS.KeyFile = writeSelfSigned(t)
	lc, url, stop := startSession(t, cfg, newSink())
	defer stop()
	client := &http.Client{Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}}

	// Act
	resp, err := client.Get(url + "/file")

	// Assert
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://"))
	assert.Equal(t, "secret", string(body))
	select {
	case <-lc.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not complete")
	}
}

func TestServer_TLSHandshakeFailureKeepsServing(t *testing.T) {
	cfg := sendConfig(t, "data")
	cfg.TLS.CertFile, cfg.TLS.KeyFile = writeSelfSigned(t)
	_, url, stop := startSession(t, cfg, newSink())
	defer stop()
	host := strings.TrimPrefix(url, "https://")
	host = host[:strings.Index(host, "/")]

	// plain text on a tls port fails the handshake
	conn, err := net.Dial("tcp", host)
	require.NoError(t, err)
	_, _ = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	_, _ = io.ReadAll(conn)
	conn.Close()

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}}
	resp, err := client.Get(url + "/file")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Start_InvalidTLSMaterial(t *testing.T) {
	dir := t.TempDir()
	certFile, _ := writeSelfSigned(t)
	_, otherKey := writeSelfSigned(t)

	tests := map[string]domain.TLSConfig{
		"missing files":  {CertFile: filepath.Join(dir, "nope.pem"), KeyFile: filepath.Join(dir, "nope.key")},
		"missing key":    {CertFile: certFile},
		"mismatched key": {CertFile: certFile, KeyFile: otherKey},
	}

	for name, material := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := sendConfig(t, "x")
			cfg.TLS = material
			srv := tcp.NewServer(cfg, &blockingHandler{started: make(chan struct{})}, newSink(), discard)

			err := srv.Start(context.Background())

			assert.ErrorIs(t, err, domain.ErrStartup)
			assert.ErrorIs(t, err, domain.ErrInvalidTLSMaterial)
		})
	}
}

func TestServer_Start_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	cfg := sendConfig(t, "x")
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	srv := tcp.NewServer(cfg, &blockingHandler{started: make(chan struct{})}, newSink(), discard)

	err = srv.Start(context.Background())

	assert.ErrorIs(t, err, domain.ErrStartup)
}

func TestServer_Stop_ClosesOpenConnections(t *testing.T) {
	// Arrange
	cfg := sendConfig(t, "x")
	handler := &blockingHandler{started: make(chan struct{})}
	srv := tcp.NewServer(cfg, handler, newSink(), discard)
	require.NoError(t, srv.Start(context.Background()))

	conn, err := net.Dial("tcp", net.JoinHostPort(domain.LoopbackAddress, strconv.Itoa(srv.Port())))
	require.NoError(t, err)
	defer conn.Close()
	<-handler.started

	// Act
	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		srv.Stop()
		close(stopped)
	}()

	// Assert
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	_, err = net.DialTimeout("tcp", net.JoinHostPort(domain.LoopbackAddress, strconv.Itoa(srv.Port())), 200*time.Millisecond)
	assert.Error(t, err)
}

func TestServer_CancelledContextStopsAccepting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := tcp.NewServer(sendConfig(t, "x"), &blockingHandler{started: make(chan struct{})}, newSink(), discard)
	require.NoError(t, srv.Start(ctx))

	cancel()

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after cancellation")
	}
}

func writeSelfSigned(t *testing.T) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}
