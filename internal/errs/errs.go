// Package errs defines the error taxonomy shared by the pipeline and the control plane.
package errs

import "errors"

// Connection faults.
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrPeerClosed        = errors.New("connection closed by peer")
)

// Control-plane validation errors. The registry is left unchanged when one is returned.
var (
	ErrAlreadyConnected = errors.New("source already connected")
	ErrNotConnected     = errors.New("source not connected")
	ErrPortInUse        = errors.New("port already in use")
	ErrNotFound         = errors.New("service not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownService   = errors.New("unknown service")
)

// Sink errors.
var (
	ErrSinkPersistence = errors.New("sink persistence failed")
	ErrConfiguration   = errors.New("configuration error")
)

// IsConnectionFault reports whether err means the remote end is gone.
func IsConnectionFault(err error) bool {
	return errors.Is(err, ErrPeerClosed) || errors.Is(err, ErrConnectionRefused)
}
