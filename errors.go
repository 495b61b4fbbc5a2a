package hiven

import (
	"fmt"
)

// CloseReason is the close code and text sent by the server when it closes the gateway.
type CloseReason struct {
	Code int
	Text string
}

func (r CloseReason) String() string {
	if r.Text == "" {
		return fmt.Sprintf("%d", r.Code)
	}
	return fmt.Sprintf("%d %q", r.Code, r.Text)
}

// ExpectationFailedError reports a protocol violation: a frame kind or opcode
// that is not allowed in the current session state.
type ExpectationFailedError struct {
	Expected string
	Observed string
}

func (e *ExpectationFailedError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", ErrExpectationFailed, e.Expected, e.Observed)
}

// SocketCloseError is returned when the server closed the gateway socket.
// Reason is nil when the close frame carried no status.
type SocketCloseError struct {
	Reason *CloseReason
}

func (e *SocketCloseError) Error() string {
	if e.Reason == nil {
		return ErrSocketClosed
	}
	return fmt.Sprintf("%s: %s", ErrSocketClosed, e.Reason)
}

// Code returns the close code, or 0 when the server sent none.
func (e *SocketCloseError) Code() int {
	if e.Reason == nil {
		return 0
	}
	return e.Reason.Code
}

// InternalChannelError is returned when a session task could not hand a frame
// to its partner because the partner already stopped. It is almost always a
// consequence of an earlier error in the other task.
type InternalChannelError struct {
	Context string
}

func (e *InternalChannelError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInternalChannel, e.Context)
}

// APIError is returned by REST calls answered with a non-2xx status.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s %s: status %d", ErrAPIRequest, e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s %s: status %d: %s", ErrAPIRequest, e.Method, e.Path, e.StatusCode, e.Body)
}
