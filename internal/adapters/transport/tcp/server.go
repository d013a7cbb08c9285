package tcp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ConnHandler answers one client connection and closes it
type ConnHandler interface {
	Handle(ctx context.Context, conn net.Conn)
}

// Server owns the listening socket of one session and every connection it accepted
type Server struct {
	cfg     domain.SessionConfig
	handler ConnHandler
	sink    port.EventSink
	logger  *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	ln       *net.TCPListener
	tlsConf  *tls.Config
	port     int
	running  atomic.Bool
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a Server, nothing is bound until Start
func NewServer(cfg domain.SessionConfig, handler ConnHandler, sink port.EventSink, logger *slog.Logger) *Server {
	return &Server{
		cfg:     cfg.WithDefaults(),
		handler: handler,
		sink:    sink,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start loads the tls material, binds the listener and launches the accept loop.
// On error nothing is left running.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.TLS.Enabled() {
		conf, err := loadTLS(s.cfg.TLS)
		if err != nil {
			return err
		}
		s.tlsConf = conf
	}

	addr := net.JoinHostPort(s.cfg.BindHost(), strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: listen on %s: %v", domain.ErrStartup, addr, err)
	}
	s.ln = ln.(*net.TCPListener)
	s.port = s.ln.Addr().(*net.TCPAddr).Port

	ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)
	s.wg.Add(1)
	go s.acceptLoop(ctx)

	s.logger.Info("server started", "addr", s.ln.Addr().String(), "mode", s.cfg.Mode, "tls", s.tlsConf != nil)
	return nil
}

func loadTLS(material domain.TLSConfig) (*tls.Config, error) {
	if material.CertFile == "" || material.KeyFile == "" {
		return nil, fmt.Errorf("%w: %w: both certificate and key are required", domain.ErrStartup, domain.ErrInvalidTLSMaterial)
	}
	cert, err := tls.LoadX509KeyPair(material.CertFile, material.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", domain.ErrStartup, domain.ErrInvalidTLSMaterial, err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Port returns the bound port, resolved when the session asked for port 0
func (s *Server) Port() int {
	return s.port
}

// URL returns the session url
func (s *Server) URL() string {
	host := net.JoinHostPort(s.cfg.BindHost(), strconv.Itoa(s.port))
	return s.cfg.Scheme() + "://" + host + "/" + s.cfg.Token
}

// Stop closes the listener, force closes every open connection and waits for
// all goroutines the server started. It must not be called from a handler.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		if s.cancel != nil {
			s.cancel()
		}
		if s.ln != nil {
			_ = s.ln.Close()
		}

		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
		s.logger.Info("server stopped")
	})
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for s.running.Load() && ctx.Err() == nil {
		_ = s.ln.SetDeadline(time.Now().Add(s.cfg.PollInterval))
		conn, err := s.ln.AcceptTCP()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}

		var c net.Conn = conn
		if s.tlsConf != nil {
			tc, err := s.handshake(ctx, conn)
			if err != nil {
				s.logger.Debug("tls handshake failed", "remote", conn.RemoteAddr().String(), "error", err)
				_ = conn.Close()
				continue
			}
			c = tc
		}

		if !s.register(c) {
			_ = c.Close()
			return
		}
		ev := domain.NewEvent(domain.EventClientConnected, s.cfg)
		ev.Remote = c.RemoteAddr().String()
		s.sink.Publish(ctx, ev)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.unregister(c)
			s.handler.Handle(ctx, c)
		}()
	}
}

// handshake runs the tls handshake in the accept loop, bounded by the socket timeout
func (s *Server) handshake(ctx context.Context, conn *net.TCPConn) (*tls.Conn, error) {
	tc := tls.Server(conn, s.tlsConf)
	hctx, cancel := context.WithTimeout(ctx, s.cfg.SocketTimeout)
	defer cancel()
	if err := tc.HandshakeContext(hctx); err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return tc, nil
}

func (s *Server) register(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) unregister(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
