package domain

import "errors"

// ErrStartup is returned when the listener could not be started
var ErrStartup = errors.New("server startup failed")

// ErrInvalidTLSMaterial is returned when the certificate or key cannot be loaded
var ErrInvalidTLSMaterial = errors.New("invalid tls material")

// ErrCancelled is returned when the session context is cancelled mid-operation
var ErrCancelled = errors.New("operation cancelled")

// ErrHeaderTimeout is returned when the request header block is not received in time
var ErrHeaderTimeout = errors.New("header read timeout")

// ErrHeaderTooLarge is returned when the request header block exceeds its bound
var ErrHeaderTooLarge = errors.New("header block too large")

// ErrMalformedRequest is returned when the request line cannot be parsed
var ErrMalformedRequest = errors.New("malformed request")

// ErrPeerClosed is returned when the client closes the connection early
var ErrPeerClosed = errors.New("connection closed by peer")

// ErrInactivityTimeout is returned when no bytes moved for longer than the socket timeout
var ErrInactivityTimeout = errors.New("inactivity timeout")

// ErrOperationTimeout is returned when a single stalled operation exceeds the socket timeout
var ErrOperationTimeout = errors.New("operation timeout")

// ErrSizeExceeded is returned when an upload breaks the byte-size cap
var ErrSizeExceeded = errors.New("size limit exceeded")

// ErrPartHeaderTooLarge is returned when a multipart part header exceeds its bound
var ErrPartHeaderTooLarge = errors.New("multipart part header too large")

// ErrMissingBoundary is returned when no multipart boundary could be found
var ErrMissingBoundary = errors.New("missing multipart boundary")

// ErrWriteFailed is returned when the destination file cannot be written
var ErrWriteFailed = errors.New("file write failed")

// ErrShortFile is returned when the source file ends before its reported size
var ErrShortFile = errors.New("file shorter than reported size")

// ErrNotFound is returned when the requested file does not exist
var ErrNotFound = errors.New("file not found")

// ErrInvalidArgument is returned when a command is given bad arguments
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnknownCommand is returned for commands the shell does not know
var ErrUnknownCommand = errors.New("unknown command")
