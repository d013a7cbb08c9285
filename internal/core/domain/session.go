package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mode represents the direction of a session
type Mode string

const (
	ModeSend Mode = "send"
	ModeGet  Mode = "get"
)

const (
	// LoopbackAddress is the default bind address
	LoopbackAddress = "127.0.0.1"
	// PublicAddress binds every interface
	PublicAddress = "0.0.0.0"
	// PreviewMaxSize is the largest file served by the raw preview route
	PreviewMaxSize = 1024 * 1024

	DefaultSocketTimeout = 60 * time.Second
	DefaultPollInterval  = 100 * time.Millisecond
)

// TLSConfig holds the certificate material for https sessions
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// Enabled reports whether tls material was provided
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != ""
}

// SessionConfig represents the immutable parameters of one session
type SessionConfig struct {
	ID            uuid.UUID
	Mode          Mode
	Token         string
	Path          string
	BindAddress   string
	Port          int
	MaxSize       int64
	WorkingDir    string
	SocketTimeout time.Duration
	PollInterval  time.Duration
	PublicAccess  bool
	TLS           TLSConfig
}

// BindHost returns the address the listener binds to
func (c SessionConfig) BindHost() string {
	if c.BindAddress != "" {
		return c.BindAddress
	}
	if c.PublicAccess {
		return PublicAddress
	}
	return LoopbackAddress
}

// WithDefaults fills unset timeouts
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Scheme returns the url scheme of the session
func (c SessionConfig) Scheme() string {
	if c.TLS.Enabled() {
		return "https"
	}
	return "http"
}

// SessionState represents where a session is in its lifetime
type SessionState string

const (
	SessionStateRunning   SessionState = "running"
	SessionStateCompleted SessionState = "completed"
	SessionStateCancelled SessionState = "cancelled"
	SessionStateFailed    SessionState = "failed"
)

// SessionSnapshot is a read-only view of the running session
type SessionSnapshot struct {
	ID        uuid.UUID
	Mode      Mode
	URL       string
	State     SessionState
	StartedAt time.Time
}
