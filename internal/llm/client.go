// Package llm is the gateway to the external text-completion capability.
// The provider's wire protocol is treated as opaque: a prompt goes in, text
// comes out, and failures are classified for the orchestrator.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// KindUnavailable covers network failures, timeouts, and 5xx responses.
	KindUnavailable ErrorKind = "unavailable"
	// KindRejected covers provider-side content or quota rejections.
	KindRejected ErrorKind = "rejected"
	// KindMalformed covers empty or unparseable responses.
	KindMalformed ErrorKind = "malformed"
)

// Error is a classified gateway failure.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm: %s (%s)", e.Kind, e.Reason)
	}
	return fmt.Sprintf("llm: %s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

// KindOf extracts the failure kind from an error chain; ok is false when the
// error did not originate from the gateway.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Client sends an assembled prompt to the completion capability. Complete
// performs no retries; retry policy is layered on with WithRetry.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
