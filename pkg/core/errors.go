package core

import (
	"errors"
	"fmt"
	"syscall"
)

// Sentinel errors for common client states.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrCircuitBreakerOpen is returned when the circuit breaker rejects a call.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// TransportError indicates a connection-level failure: the request never
// produced an HTTP response (DNS failure, refused connection, timeout,
// cancelled context). The underlying cause is preserved unchanged.
type TransportError struct {
	// Target is the request path or address the call was directed at.
	Target string `json:"target"`
	// Err is the underlying transport failure.
	Err error `json:"-"`
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Target, e.Err)
}

// Unwrap returns the underlying transport failure.
func (e *TransportError) Unwrap() error { return e.Err }

// TCPError indicates a raw socket setup failure, such as dialing the live
// gateway. Errno carries the OS error number when one was available.
type TCPError struct {
	// Context describes the socket operation that failed.
	Context string `json:"context"`
	// Errno is the OS-level error number, or 0 when none applied.
	Errno int `json:"errno"`
	// Err is the underlying socket error.
	Err error `json:"-"`
}

// NewTCPError wraps a socket error, extracting the OS error number from the
// cause chain when present.
func NewTCPError(context string, err error) *TCPError {
	e := &TCPError{Context: context, Err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Errno = int(errno)
	}
	return e
}

// Error implements the error interface for TCPError.
func (e *TCPError) Error() string {
	if e.Errno != 0 {
		return fmt.Sprintf("%s: %v (errno %d)", e.Context, e.Err, e.Errno)
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

// Unwrap returns the underlying socket error.
func (e *TCPError) Unwrap() error { return e.Err }

// HTTPResponseError indicates the server answered with a non-success status.
// The response body is preserved verbatim for diagnosis.
type HTTPResponseError struct {
	// Target is the request path the call was directed at.
	Target string `json:"target"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"status_code"`
	// Body is the raw response body, unmodified.
	Body string `json:"body"`
}

// Error implements the error interface for HTTPResponseError.
func (e *HTTPResponseError) Error() string {
	return fmt.Sprintf("received an error response from request to %s with status %d and body '%s'",
		e.Target, e.StatusCode, e.Body)
}

// InvalidArgumentError indicates a caller mistake detected before any network
// activity takes place.
type InvalidArgumentError struct {
	// Op is the operation or method the argument was passed to.
	Op string `json:"op"`
	// Param names the offending parameter.
	Param string `json:"param"`
	// Detail explains the violation.
	Detail string `json:"detail"`
}

// Error implements the error interface for InvalidArgumentError.
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument '%s' to %s: %s", e.Param, e.Op, e.Detail)
}

// MissingKeyError indicates a response object lacked a required key. Path
// locates the enclosing value, starting at the operation name.
type MissingKeyError struct {
	// Path is the diagnostic location of the enclosing object.
	Path string `json:"path"`
	// Key is the absent key.
	Key string `json:"key"`
}

// Error implements the error interface for MissingKeyError.
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing key '%s' in response for %s", e.Key, e.Path)
}

// TypeMismatchError indicates a response value did not carry the required
// JSON shape. It names both the expected and the actual type and renders the
// offending value. Key is empty when the mismatch is at the root of the
// inspected value rather than under a key.
type TypeMismatchError struct {
	// Path is the diagnostic location of the inspected value.
	Path string `json:"path"`
	// Expected is the required type.
	Expected string `json:"expected"`
	// Actual is the type the response carried.
	Actual string `json:"actual"`
	// Value is a rendering of the offending value.
	Value string `json:"value"`
	// Key is the key the value was found under, if any.
	Key string `json:"key,omitempty"`
}

// Error implements the error interface for TypeMismatchError.
func (e *TypeMismatchError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("expected %s in response for %s, got %s %s for key '%s'",
			e.Expected, e.Path, e.Actual, e.Value, e.Key)
	}
	return fmt.Sprintf("expected %s response for %s, got %s %s",
		e.Expected, e.Path, e.Actual, e.Value)
}

// ParseError indicates raw response bytes could not be decoded at all, either
// malformed JSON or broken binary framing.
type ParseError struct {
	// Op is the operation whose response failed to parse.
	Op string `json:"op"`
	// Err is the underlying decode failure.
	Err error `json:"-"`
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse response to %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying decode failure.
func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolError indicates the live gateway sent something that violates the
// expected session protocol. Payload holds the offending message verbatim.
type ProtocolError struct {
	// Context describes the protocol phase that was violated.
	Context string `json:"context"`
	// Payload is the offending message, unmodified.
	Payload string `json:"payload"`
}

// Error implements the error interface for ProtocolError.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s, gateway sent '%s'", e.Context, e.Payload)
}

// IsDecodeError returns true if the error reports a response that arrived but
// could not be decoded: a missing key, a type mismatch, or unparseable bytes.
func IsDecodeError(err error) bool {
	var missing *MissingKeyError
	var mismatch *TypeMismatchError
	var parse *ParseError
	return errors.As(err, &missing) || errors.As(err, &mismatch) || errors.As(err, &parse)
}

// IsTransportError returns true if the error reports a connection-level
// failure, including raw socket setup failures.
func IsTransportError(err error) bool {
	var transport *TransportError
	var tcp *TCPError
	return errors.As(err, &transport) || errors.As(err, &tcp)
}

// IsInvalidArgument returns true if the error reports a caller mistake caught
// before any network activity.
func IsInvalidArgument(err error) bool {
	var invalid *InvalidArgumentError
	return errors.As(err, &invalid)
}

// IsProtocolError returns true if the error reports a live gateway protocol
// violation.
func IsProtocolError(err error) bool {
	var protocol *ProtocolError
	return errors.As(err, &protocol)
}
