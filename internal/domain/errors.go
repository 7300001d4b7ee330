package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Common domain errors
var (
	ErrInsufficientSpace = errors.New("insufficient space")
	ErrNotRegularFile    = errors.New("not a regular file")
)

// TransportError is a failure below the HTTP protocol layer: DNS,
// connection refused or reset, timeouts, a body cut short by the network.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error returns the error message
func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError is an HTTP response carrying an unsuccessful status code
type ProtocolError struct {
	Op         string
	URL        string
	StatusCode int
}

// Error returns the error message
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s %s: HTTP status %d (%s)", e.Op, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ConsistencyError reports that the remote resource, a server response or a
// local file does not agree with the identity established by the probe.
type ConsistencyError struct {
	Check    string
	Expected string
	Actual   string
}

// Error returns the error message
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

// FormatError reports a value that does not follow its expected syntax,
// such as a Content-Range header or a partial file name.
type FormatError struct {
	Kind  string
	Input string
	Err   error
}

// Error returns the error message
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Kind, e.Input, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Kind, e.Input)
}

// Unwrap returns the underlying error
func (e *FormatError) Unwrap() error {
	return e.Err
}

// FilesystemError is an unexpected local I/O failure
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

// Error returns the error message
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// IsTransport returns true if the error is a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// StatusCode returns the HTTP status of a ProtocolError
func StatusCode(err error) (int, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe.StatusCode, true
	}
	return 0, false
}

// IsConsistency returns true if the error is a ConsistencyError
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsFormat returns true if the error is a FormatError
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
