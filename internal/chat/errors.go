package chat

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeStorageUnavailable  ErrorCode = "STORAGE_UNAVAILABLE"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
	CodeUpstreamMalformed   ErrorCode = "UPSTREAM_MALFORMED"
)

// Error carries a stable code for transport mapping plus a short reason for
// logs. Upstream codes never reach callers as errors; they surface only in
// logs and metrics while the caller gets the fallback reply.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("chat: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("chat: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the error code; ok is false for errors from other layers.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
